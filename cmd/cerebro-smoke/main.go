// cerebro-smoke runs scenario files against a live decision server.
// Every case goes over gRPC; expectations are checked exactly as
// `cerebro check` checks them locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/client"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/scenario"
)

const (
	red   = "\033[0;31m"
	green = "\033[0;32m"
	cyan  = "\033[0;36m"
	bold  = "\033[1m"
	reset = "\033[0m"
)

func main() {
	addr := flag.String("server", envOr("CEREBRO_ADDR", "localhost:50051"), "decision server address")
	pattern := flag.String("scenario", "scenarios/*.yaml", "glob pattern for scenario files")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-case timeout")
	flag.Parse()

	if err := run(*addr, *pattern, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "%s%v%s\n", red, err, reset)
		os.Exit(1)
	}
}

func run(addr, pattern string, timeout time.Duration) error {
	paths, err := scenario.Glob(pattern)
	if err != nil {
		return err
	}

	c, err := client.New(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("%s%s=== CEREBRO SMOKE %s ===%s\n\n", bold, cyan, addr, reset)

	decide := remoteDecider(c, timeout)
	var results []*scenario.RunResult
	failed, skipped := 0, 0
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return err
		}
		skipped += dropLedgerCases(s)
		r := scenario.Run(s, decide)
		r.File = path
		results = append(results, r)
		failed += r.Failed
	}

	out := scenario.FormatText(results)
	color := green
	if failed > 0 {
		color = red
	}
	fmt.Printf("%s%s%s", color, out, reset)
	if skipped > 0 {
		fmt.Printf("%d case(s) skipped: period_transferred needs the server-side ledger.\n", skipped)
	}

	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}

// remoteDecider sends each case to the server. Verification is passed as a
// caller override so cases stay independent of server-side tracker state.
func remoteDecider(c *client.Client, timeout time.Duration) scenario.DecideFunc {
	return func(sc scenario.Case) (model.Outcome, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		now := time.Now()
		req := api.DecideRequest{
			Intent: map[string]any{
				"intent_id": sc.Intent.ID,
				"source":    string(sc.Intent.Source),
				"payload":   sc.Intent.Payload,
			},
			Context: api.Context{
				Role:          sc.Context.Role,
				GeoPoint:      sc.Context.Point,
				ActiveEscudos: sc.Context.ActiveEscudos,
				Amount:        sc.Context.Amount,
				ImpactClass:   sc.Context.Impact,
			},
		}
		if v := sc.Context.Verification(now); v.Level > model.LevelNone {
			req.Context.Verification = &api.Verification{Level: v.Level, VerifiedAt: v.VerifiedAt}
		}

		resp, err := c.Decide(ctx, req)
		return resp.Outcome, err
	}
}

// dropLedgerCases removes cases that depend on a period total; the server
// reads that from its own ledger and cannot be told it per request.
func dropLedgerCases(s *scenario.Scenario) int {
	kept := s.Cases[:0]
	for _, c := range s.Cases {
		if c.Context.PeriodTransferred == 0 {
			kept = append(kept, c)
		}
	}
	n := len(s.Cases) - len(kept)
	s.Cases = kept
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
