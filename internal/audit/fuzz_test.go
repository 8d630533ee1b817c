package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	validLog := filepath.Join(f.TempDir(), "valid.jsonl")
	l, err := Open(validLog)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		l.Record(Entry{UserID: "u-fuzz", Intent: "navigate.home", Kind: "allowed", PolicyHash: "sha256:test"})
	}
	l.Close()
	validData, _ := os.ReadFile(validLog)

	f.Add(validData)
	f.Add([]byte{})
	f.Add([]byte(`{"not":"a valid entry"}` + "\n"))
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		path := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(path, data, 0644)
		Verify(path)
		Replay(path, Filter{})
	})
}
