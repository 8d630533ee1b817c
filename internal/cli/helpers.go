package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

func writeResult(w io.Writer, output string) {
	if strings.HasSuffix(output, "\n") {
		fmt.Fprint(w, output)
		return
	}
	fmt.Fprintln(w, output)
}

// parseLevel accepts 0-3.
func parseLevel(n int) (model.Level, error) {
	l := model.Level(n)
	if !l.Valid() {
		return 0, fmt.Errorf("verification level must be 0-3, got %d", n)
	}
	return l, nil
}

// parseTime accepts RFC3339 or a duration meaning "that long ago".
func parseTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or a duration like 1h", s)
	}
	return now.Add(-d), nil
}
