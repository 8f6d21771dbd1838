/*
NAME
  ratecontrol_test.go

DESCRIPTION
  ratecontrol_test.go tests the MinMax QP bisection and damage-control
  fallback in ratecontrol.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package ratecontrol

import "testing"

// TestChooseQPNoSamples checks that, with no prior samples, ChooseQP
// falls back to the coarse inverse-QP heuristic and still returns a QP
// within range.
func TestChooseQPNoSamples(t *testing.T) {
	c := NewController(10000, 1, 51)
	qp, bits := c.ChooseQP()
	if qp < 1 || qp > 51 {
		t.Fatalf("ChooseQP returned out-of-range QP %d", qp)
	}
	if bits <= 0 {
		t.Fatalf("ChooseQP returned non-positive predicted bits %d", bits)
	}
}

// TestChooseQPConvergesTowardTarget checks that, given recorded samples
// showing bits falling as QP rises, ChooseQP prefers a QP whose predicted
// bit cost is closer to the target than either extreme of the range.
func TestChooseQPConvergesTowardTarget(t *testing.T) {
	c := NewController(5000, 1, 51)
	c.Record(10, 40000)
	c.Record(20, 15000)
	c.Record(30, 6000)
	c.Record(40, 2000)

	qp, bits := c.ChooseQP()
	if qp < 1 || qp > 51 {
		t.Fatalf("ChooseQP returned out-of-range QP %d", qp)
	}
	lowQPBits := c.predictBits(1)
	highQPBits := c.predictBits(51)
	gotDist := abs(bits - c.TargetBits)
	if gotDist > abs(lowQPBits-c.TargetBits) || gotDist > abs(highQPBits-c.TargetBits) {
		t.Errorf("ChooseQP picked QP %d (predicted %d bits), worse than an extreme for target %d", qp, bits, c.TargetBits)
	}
}

// TestDamageControlWithinBudget checks that DamageControl returns QPMax
// immediately when it already meets budget, without walking the
// extended ladder.
func TestDamageControlWithinBudget(t *testing.T) {
	c := NewController(1<<30, 1, 51)
	c.Record(51, 10)
	qp, bits, err := c.DamageControl()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qp != 51 {
		t.Errorf("got QP %d, want 51 (already within budget)", qp)
	}
	if bits > c.TargetBits {
		t.Errorf("predicted bits %d exceed target %d", bits, c.TargetBits)
	}
}

// TestDamageControlEscalates checks that, when QPMax cannot meet a tiny
// budget, DamageControl steps up the extended QP ladder rather than
// returning QPMax outright.
func TestDamageControlEscalates(t *testing.T) {
	c := NewController(1, 1, 51)
	c.Record(10, 100000)
	c.Record(51, 2000)
	qp, _, err := c.DamageControl()
	if qp <= 51 {
		t.Errorf("expected DamageControl to escalate beyond QPMax=51, got QP %d (err=%v)", qp, err)
	}
}

// TestTraceReflectsRecordOrder checks that Trace returns recorded samples
// in the order Record was called, and that mutating the returned slice
// does not affect the controller's internal state.
func TestTraceReflectsRecordOrder(t *testing.T) {
	c := NewController(1000, 1, 51)
	c.Record(20, 5000)
	c.Record(30, 3000)

	trace := c.Trace()
	if len(trace) != 2 || trace[0].QP != 20 || trace[1].QP != 30 {
		t.Fatalf("unexpected trace order: %+v", trace)
	}
	trace[0].QP = 99
	if c.samples[0].QP == 99 {
		t.Error("Trace must return a copy, not the internal slice")
	}
}
