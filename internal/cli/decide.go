package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/client"
	"github.com/ppiankov/cerebro/internal/model"
)

var (
	decideIntent            string
	decideSource            string
	decideRole              string
	decideUser              string
	decideLat               float64
	decideLng               float64
	decideAmount            int64
	decideImpact            string
	decideEscudos           []string
	decideVerifiedLevel     int
	decideVerifiedAgo       time.Duration
	decidePayload           map[string]string
	decidePeriodTransferred int64
	decidePolicy            string
	decideServer            string
)

func init() {
	rootCmd.AddCommand(decideCmd)
	f := decideCmd.Flags()
	f.StringVar(&decideIntent, "intent", "", "Intent ID, e.g. wallet_transfer (required)")
	f.StringVar(&decideSource, "source", "system", "Intent source (chip|system|voice)")
	f.StringVar(&decideRole, "role", "", "User role (required)")
	f.StringVar(&decideUser, "user", "", "User ID")
	f.Float64Var(&decideLat, "lat", 0, "Latitude of the user")
	f.Float64Var(&decideLng, "lng", 0, "Longitude of the user")
	f.Int64Var(&decideAmount, "amount", 0, "Amount in guaraníes")
	f.StringVar(&decideImpact, "impact", "", "Impact class (low|medium|high)")
	f.StringSliceVar(&decideEscudos, "escudo", nil, "Active escudo ID (repeatable)")
	f.IntVar(&decideVerifiedLevel, "verified-level", 0, "Level of the user's last verification (0-3)")
	f.DurationVar(&decideVerifiedAgo, "verified-ago", 0, "How long ago the user verified")
	f.StringToStringVar(&decidePayload, "payload", nil, "Intent payload key=value pairs")
	f.Int64Var(&decidePeriodTransferred, "period-transferred", 0, "Amount already transferred today (local mode only)")
	f.StringVar(&decidePolicy, "policy", "", "Path to policy YAML (local mode)")
	f.StringVar(&decideServer, "server", "", "Decision server address; when set the decision is made remotely")
	decideCmd.MarkFlagRequired("intent")
	decideCmd.MarkFlagRequired("role")
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Decide a single intent",
	Long: "Evaluates one intent for one user context and prints the outcome as JSON.\n" +
		"Runs against a local policy unless --server is set.",
	Example: "  cerebro decide --intent wallet_transfer --role capeto --amount 1500000 \\\n" +
		"    --lat -25.2637 --lng -57.5759 --verified-level 2 --verified-ago 1m",
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
	req, err := buildDecideRequest(cmd, time.Now())
	if err != nil {
		return err
	}

	var resp api.DecideResponse
	if decideServer != "" {
		c, err := client.New(decideServer)
		if err != nil {
			return err
		}
		defer c.Close()
		resp, err = c.Decide(cmd.Context(), req)
		if err != nil {
			return err
		}
	} else {
		resp, err = decideLocal(cmd.Context(), req)
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func buildDecideRequest(cmd *cobra.Command, now time.Time) (api.DecideRequest, error) {
	payload := map[string]any{}
	for k, v := range decidePayload {
		payload[k] = v
	}
	req := api.DecideRequest{
		Intent: map[string]any{
			"intent_id": decideIntent,
			"source":    decideSource,
			"payload":   payload,
		},
		Context: api.Context{
			UserID:        decideUser,
			Role:          decideRole,
			ActiveEscudos: decideEscudos,
			ImpactClass:   decideImpact,
		},
	}

	flags := cmd.Flags()
	if flags.Changed("lat") != flags.Changed("lng") {
		return req, fmt.Errorf("--lat and --lng must be set together")
	}
	if flags.Changed("lat") {
		req.Context.GeoPoint = &model.GeoPoint{Lat: decideLat, Lng: decideLng}
	}
	if flags.Changed("amount") {
		amount := decideAmount
		req.Context.Amount = &amount
	}
	if flags.Changed("verified-level") {
		level, err := parseLevel(decideVerifiedLevel)
		if err != nil {
			return req, err
		}
		req.Context.Verification = &api.Verification{Level: level, VerifiedAt: now.Add(-decideVerifiedAgo)}
	}
	return req, nil
}

func decideLocal(ctx context.Context, req api.DecideRequest) (api.DecideResponse, error) {
	opts := cerebro.Options{PolicyPath: decidePolicy, Logger: log()}
	if decidePeriodTransferred > 0 {
		total := decidePeriodTransferred
		opts.Ledger = cerebro.LedgerFunc(func(context.Context, string) (int64, error) {
			return total, nil
		})
	}
	svc, err := cerebro.Load(opts)
	if err != nil {
		return api.DecideResponse{}, err
	}
	defer svc.Close(ctx)
	return api.Decide(ctx, svc, req), nil
}
