package verification

import (
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFreshnessBoundaryIsHalfOpen(t *testing.T) {
	f := DefaultFreshness()
	for _, l := range []model.Level{model.LevelConfirm, model.LevelFace, model.LevelStrong} {
		tr := NewTracker(f, State{})
		if _, err := tr.RecordResult(true, l, MethodFace, t0); err != nil {
			t.Fatal(err)
		}
		ttl := f.TTL(l)
		if !tr.IsFresh(l, t0) {
			t.Errorf("level %d: expected fresh at verification time", l)
		}
		if !tr.IsFresh(l, t0.Add(ttl-time.Nanosecond)) {
			t.Errorf("level %d: expected fresh just before ttl", l)
		}
		if tr.IsFresh(l, t0.Add(ttl)) {
			t.Errorf("level %d: expected stale at exactly ttl", l)
		}
	}
}

func TestHigherLevelSatisfiesLower(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	tr.RecordResult(true, model.LevelFace, MethodFace, t0)

	if !tr.IsFresh(model.LevelConfirm, t0.Add(time.Minute)) {
		t.Error("level 2 verification should satisfy level 1")
	}
	if tr.IsFresh(model.LevelStrong, t0) {
		t.Error("level 2 verification must not satisfy level 3")
	}
}

func TestPerLevelTTLUsesRequiredLevel(t *testing.T) {
	f := DefaultFreshness()
	tr := NewTracker(f, State{})
	tr.RecordResult(true, model.LevelStrong, MethodDocument, t0)

	// Seven minutes later: stale for level 2 (5m) but fresh for level 1 (10m).
	at := t0.Add(7 * time.Minute)
	if tr.IsFresh(model.LevelFace, at) {
		t.Error("expected stale for level 2")
	}
	if !tr.IsFresh(model.LevelConfirm, at) {
		t.Error("expected fresh for level 1")
	}
}

func TestConfirmationWritesFullState(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	snap, err := tr.RecordResult(true, model.LevelConfirm, MethodConfirm, t0)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != PhaseVerified {
		t.Errorf("expected verified phase, got %s", snap.Phase)
	}
	if snap.Verified.Level != model.LevelConfirm || !snap.Verified.VerifiedAt.Equal(t0) {
		t.Errorf("unexpected state %+v", snap.Verified)
	}
}

func TestPhaseTransitions(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	if got := tr.Snapshot().Phase; got != PhaseUnverified {
		t.Fatalf("expected unverified, got %s", got)
	}

	if err := tr.StartVerification(model.LevelFace, MethodFace); err != nil {
		t.Fatal(err)
	}
	snap := tr.Snapshot()
	if snap.Phase != PhasePending || snap.Pending == nil || snap.Pending.Level != model.LevelFace {
		t.Fatalf("expected pending level 2, got %+v", snap)
	}

	tr.RecordResult(true, model.LevelFace, MethodFace, t0)
	if got := tr.Snapshot().Phase; got != PhaseVerified {
		t.Fatalf("expected verified, got %s", got)
	}
}

func TestFailedResultKeepsPreviousState(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	tr.RecordResult(true, model.LevelConfirm, MethodConfirm, t0)
	tr.StartVerification(model.LevelFace, MethodFace)

	snap, err := tr.RecordResult(false, model.LevelFace, MethodFace, t0.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Pending != nil {
		t.Error("failed result must clear the pending attempt")
	}
	if snap.Verified.Level != model.LevelConfirm || !snap.Verified.VerifiedAt.Equal(t0) {
		t.Errorf("previous state lost: %+v", snap.Verified)
	}
}

func TestSuccessOverwritesEvenWithLowerLevel(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	tr.RecordResult(true, model.LevelStrong, MethodDocument, t0)
	tr.RecordResult(true, model.LevelConfirm, MethodConfirm, t0.Add(time.Second))

	if got := tr.State().Level; got != model.LevelConfirm {
		t.Errorf("expected overwrite to level 1, got %d", got)
	}
}

func TestInvalidLevelsRejected(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	if err := tr.StartVerification(model.LevelNone, MethodConfirm); err == nil {
		t.Error("expected error starting level 0")
	}
	if err := tr.StartVerification(model.Level(4), MethodFace); err == nil {
		t.Error("expected error starting level 4")
	}
	if _, err := tr.RecordResult(true, model.Level(9), MethodFace, t0); err == nil {
		t.Error("expected error recording level 9")
	}
	if tr.State().Verified() {
		t.Error("invalid result must not write state")
	}
}

func TestUnverifiedNeverFresh(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	if tr.IsFresh(model.LevelConfirm, t0) {
		t.Error("unverified tracker must not be fresh")
	}
	if !tr.IsFresh(model.LevelNone, t0) {
		t.Error("level 0 requires nothing")
	}
}

func TestFreshnessValidate(t *testing.T) {
	if err := DefaultFreshness().Validate(); err != nil {
		t.Fatalf("default freshness invalid: %v", err)
	}
	f := DefaultFreshness()
	f.Face = 0
	if err := f.Validate(); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestConcurrentRecordAndRead(t *testing.T) {
	tr := NewTracker(DefaultFreshness(), State{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.RecordResult(true, model.LevelFace, MethodFace, t0.Add(time.Duration(i)*time.Millisecond))
		}(i)
		go func() {
			defer wg.Done()
			snap := tr.Snapshot()
			if snap.Phase == PhaseVerified && snap.Verified.Level != model.LevelFace {
				t.Errorf("torn read: %+v", snap)
			}
		}()
	}
	wg.Wait()
}

func TestFutureTimestampNotFresh(t *testing.T) {
	s := State{Level: model.LevelStrong, VerifiedAt: t0.Add(time.Second)}
	if s.FreshFor(model.LevelConfirm, t0, DefaultFreshness()) {
		t.Error("a verification stamped after now must not be fresh")
	}
}
