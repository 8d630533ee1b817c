package cerebro

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWrapBlocksRole(t *testing.T) {
	c := newTestClient(t)
	called := false
	wrapped := c.Wrap(func(ctx context.Context, in Intent, u User) (any, error) {
		called = true
		return nil, nil
	})

	_, err := wrapped(context.Background(), Intent{ID: "wallet_transfer"}, User{Role: "vale"})
	blocked := requireBlocked(t, err)
	if blocked.Result.Kind != Blocked {
		t.Errorf("expected blocked, got %s", blocked.Result.Kind)
	}
	if called {
		t.Error("inner function should not be called when blocked")
	}
	if !strings.Contains(err.Error(), "wallet_transfer") {
		t.Errorf("error should name the intent: %v", err)
	}
}

func TestWrapRequiresValidation(t *testing.T) {
	c := newTestClient(t)
	wrapped := c.Wrap(func(ctx context.Context, in Intent, u User) (any, error) {
		t.Fatal("inner should not be called")
		return nil, nil
	})

	_, err := wrapped(context.Background(), Intent{ID: "wallet_transfer", Source: "chip"}, User{
		Role: "capeto", Point: villaMorra, Amount: Amount(1_000_000),
	})
	blocked := requireBlocked(t, err)
	if blocked.Result.Kind != RequiresValidation || blocked.Result.RequiredLevel != 2 {
		t.Errorf("expected requires_validation level 2, got %s level %d", blocked.Result.Kind, blocked.Result.RequiredLevel)
	}
	if !strings.Contains(err.Error(), "level 2") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestWrapAllowsAndExposesResult(t *testing.T) {
	c := newTestClient(t)
	wrapped := c.Wrap(func(ctx context.Context, in Intent, u User) (any, error) {
		res, ok := FromContext(ctx)
		if !ok {
			t.Error("expected result in context")
		}
		return res.Severity, nil
	})

	out, err := wrapped(context.Background(), Intent{ID: "wallet_transfer", Source: "chip"}, User{
		Role: "capeto", VerifiedLevel: 2, VerifiedAt: time.Now(), Point: villaMorra, Amount: Amount(1_000_000),
	})
	if err != nil {
		t.Fatalf("expected allow, got error: %v", err)
	}
	if out != "green" {
		t.Errorf("expected green severity, got %v", out)
	}
}

func TestWrapConcurrent(t *testing.T) {
	c := newTestClient(t)
	wrapped := c.Wrap(func(ctx context.Context, in Intent, u User) (any, error) {
		return "ok", nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wrapped(context.Background(), Intent{ID: "navigate.home"}, User{Role: "cliente"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromContextEmpty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no result in a bare context")
	}
}
