package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Filter selects entries for replay. Zero fields match everything.
type Filter struct {
	UserID string
	Intent string
	Kind   string
	From   time.Time
	To     time.Time
	// Last keeps only the newest N matches. 0 keeps all.
	Last int
}

func (f Filter) match(e Entry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Intent != "" && e.Intent != f.Intent {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		ts, err := time.Parse(TimestampFormat, e.Timestamp)
		if err != nil {
			return false
		}
		if !f.From.IsZero() && ts.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && ts.After(f.To) {
			return false
		}
	}
	return true
}

// Summary counts decision outcomes in a replay.
type Summary struct {
	Total              int    `json:"total"`
	Allowed            int    `json:"allowed"`
	RequiresValidation int    `json:"requires_validation"`
	Blocked            int    `json:"blocked"`
	Faults             int    `json:"faults"`
	Verifications      int    `json:"verifications"`
	FirstTimestamp     string `json:"first_timestamp,omitempty"`
	LastTimestamp      string `json:"last_timestamp,omitempty"`
}

// ReplayResult is the filtered entries plus their summary.
type ReplayResult struct {
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
}

// Replay reads the log and returns entries matching the filter, oldest first.
// Malformed lines are skipped; use Verify to detect them.
func Replay(path string, filter Filter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if filter.match(e) {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if filter.Last > 0 && len(entries) > filter.Last {
		entries = entries[len(entries)-filter.Last:]
	}

	result := &ReplayResult{Entries: entries}
	for _, e := range entries {
		summarize(&result.Summary, e)
	}
	return result, nil
}

func summarize(s *Summary, e Entry) {
	s.Total++
	switch {
	case e.Type == TypeVerification:
		s.Verifications++
	case e.Kind == "allowed":
		s.Allowed++
	case e.Kind == "requires_validation":
		s.RequiresValidation++
	case e.Kind == "blocked":
		s.Blocked++
		if e.Step == "fault" {
			s.Faults++
		}
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
