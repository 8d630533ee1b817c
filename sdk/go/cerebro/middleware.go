package cerebro

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Request headers read by HeaderExtractor.
const (
	HeaderUserID  = "X-Cerebro-User-Id"
	HeaderRole    = "X-Cerebro-Role"
	HeaderLat     = "X-Cerebro-Lat"
	HeaderLng     = "X-Cerebro-Lng"
	HeaderEscudos = "X-Cerebro-Escudos"

	// HeaderDecisionID is set on every response that went through Middleware.
	HeaderDecisionID = "X-Cerebro-Decision-Id"
)

// Extractor maps an HTTP request to the intent and user to decide.
type Extractor func(r *http.Request) (Intent, User, error)

// HeaderExtractor decides intentID for the user described by the
// X-Cerebro-* headers. Verification comes from the tracker for the user ID.
func HeaderExtractor(intentID string) Extractor {
	return func(r *http.Request) (Intent, User, error) {
		u := User{
			ID:   r.Header.Get(HeaderUserID),
			Role: r.Header.Get(HeaderRole),
		}
		if esc := r.Header.Values(HeaderEscudos); len(esc) > 0 {
			u.Escudos = esc
		}

		lat, lng := r.Header.Get(HeaderLat), r.Header.Get(HeaderLng)
		if lat != "" || lng != "" {
			la, err1 := strconv.ParseFloat(lat, 64)
			ln, err2 := strconv.ParseFloat(lng, 64)
			if err1 != nil || err2 != nil {
				return Intent{}, User{}, fmt.Errorf("invalid %s/%s", HeaderLat, HeaderLng)
			}
			u.Point = &Point{Lat: la, Lng: ln}
		}
		return Intent{ID: intentID, Source: "system"}, u, nil
	}
}

// Middleware returns an http.Handler middleware that decides each request
// before passing it on. Blocked requests get 403 and validation requests get
// 428 Precondition Required, both with the rendered decision as JSON.
// Allowed requests carry the Result in their context; see FromContext.
func (c *Client) Middleware(extract Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in, u, err := extract(r)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}

			res := c.Decide(r.Context(), in, u)
			w.Header().Set(HeaderDecisionID, res.DecisionID)

			switch res.Kind {
			case Allowed:
				next.ServeHTTP(w, r.WithContext(withResult(r.Context(), res)))
			case RequiresValidation:
				writeJSON(w, http.StatusPreconditionRequired, body(res))
			default:
				writeJSON(w, http.StatusForbidden, body(res))
			}
		})
	}
}

func body(res Result) map[string]any {
	return map[string]any{
		"decision_id":    res.DecisionID,
		"kind":           string(res.Kind),
		"message":        res.Message,
		"reason":         res.Reason,
		"severity":       res.Severity,
		"required_level": res.RequiredLevel,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
