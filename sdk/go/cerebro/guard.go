package cerebro

import "context"

// IntentFunc is the function signature that Wrap guards.
type IntentFunc func(ctx context.Context, in Intent, u User) (any, error)

// Wrap returns an IntentFunc that decides before calling fn. Anything other
// than Allowed returns a *BlockedError without calling fn.
func (c *Client) Wrap(fn IntentFunc) IntentFunc {
	return func(ctx context.Context, in Intent, u User) (any, error) {
		res := c.Decide(ctx, in, u)
		if !res.Allowed() {
			return nil, &BlockedError{Intent: in, Result: res}
		}
		return fn(withResult(ctx, res), in, u)
	}
}

type resultKey struct{}

func withResult(ctx context.Context, r Result) context.Context {
	return context.WithValue(ctx, resultKey{}, r)
}

// FromContext returns the Allowed decision that admitted the current call,
// so handlers can render its message and severity.
func FromContext(ctx context.Context) (Result, bool) {
	r, ok := ctx.Value(resultKey{}).(Result)
	return r, ok
}
