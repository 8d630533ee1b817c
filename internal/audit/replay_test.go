package audit

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	base := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	ts := func(s int) string { return base.Add(time.Duration(s) * time.Second).Format(TimestampFormat) }

	entries := []Entry{
		{Timestamp: ts(0), UserID: "u-a", Role: "vale", Intent: "wallet_transfer", Kind: "blocked", Step: "role"},
		{Timestamp: ts(2), UserID: "u-a", Role: "vale", Intent: "navigate.home", Kind: "allowed", Zone: Zone{State: "red", TerritoryID: "chacarita"}},
		{Timestamp: ts(4), UserID: "u-b", Role: "capeto", Intent: "wallet_transfer", Kind: "requires_validation", RequiredLevel: 2},
		{Timestamp: ts(6), Type: TypeVerification, UserID: "u-b", RequiredLevel: 2, Reason: "face"},
		{Timestamp: ts(8), UserID: "u-b", Role: "capeto", Intent: "wallet_transfer", Kind: "allowed", RequiredLevel: 2},
		{Timestamp: ts(10), UserID: "u-a", Role: "vale", Intent: "chat_open", Kind: "blocked", Step: "fault"},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestReplayFiltersByUser(t *testing.T) {
	result, err := Replay(writeTestLog(t), Filter{UserID: "u-a"})
	if err != nil {
		t.Fatal(err)
	}
	s := result.Summary
	if s.Total != 3 || s.Allowed != 1 || s.Blocked != 2 || s.Faults != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestReplayFiltersByKindAndIntent(t *testing.T) {
	path := writeTestLog(t)
	result, _ := Replay(path, Filter{Intent: "wallet_transfer", Kind: "allowed"})
	if len(result.Entries) != 1 || result.Entries[0].UserID != "u-b" {
		t.Errorf("expected one allowed transfer by u-b, got %+v", result.Entries)
	}
}

func TestReplayTimeRangeAndLast(t *testing.T) {
	path := writeTestLog(t)
	base := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)

	result, _ := Replay(path, Filter{From: base.Add(3 * time.Second), To: base.Add(8 * time.Second)})
	if result.Summary.Total != 3 {
		t.Errorf("expected 3 entries in range, got %d", result.Summary.Total)
	}

	result, _ = Replay(path, Filter{Last: 2})
	if len(result.Entries) != 2 || result.Entries[1].Intent != "chat_open" {
		t.Errorf("expected newest two entries, got %+v", result.Entries)
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	path := writeTestLog(t)
	lines := readLines(t, path)
	writeLines(t, path, append([]string{"not json"}, lines...))

	result, err := Replay(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Total != 6 {
		t.Errorf("expected 6 parsed entries, got %d", result.Summary.Total)
	}
}

func TestFormatTimeline(t *testing.T) {
	result, _ := Replay(writeTestLog(t), Filter{})
	out := FormatTimeline(result)

	for _, want := range []string{"REQUIRES_VALIDATION", "VERIFICATION", "red:chacarita", "Summary: 6 entries", "2 allowed", "1 faults"} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}

	if got := FormatTimeline(&ReplayResult{}); got != "No entries found.\n" {
		t.Errorf("unexpected empty output %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	result, _ := Replay(writeTestLog(t), Filter{Last: 1})
	out, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"intent": "chat_open"`) {
		t.Errorf("unexpected json:\n%s", out)
	}
}
