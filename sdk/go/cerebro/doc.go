// Package cerebro provides in-process intent authorization for Go services.
// It decides whether a user may perform an intent given their role,
// verification freshness, location and active escudos, and enforces the
// answer at call sites and HTTP handlers.
//
// Usage:
//
//	c, err := cerebro.New(cerebro.WithPolicy("/etc/cerebro/policy.yaml"))
//	transfer := c.Wrap(doTransfer)
//	_, err = transfer(ctx, cerebro.Intent{ID: "wallet_transfer"}, cerebro.User{
//	    ID:     "u-123",
//	    Role:   "capeto",
//	    Point:  &cerebro.Point{Lat: -25.2637, Lng: -57.5759},
//	    Amount: cerebro.Amount(1_500_000),
//	})
//
// Every answer is Allowed, RequiresValidation or Blocked. Internal faults
// are Blocked with a generic message; the SDK never fails open.
package cerebro
