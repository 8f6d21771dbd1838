/*
DESCRIPTION
  ratecontrol.go implements the MinMax rate controller: a bisection
  search over QP driven by a power-law R(D) fit, falling back to a
  steepest-ascent "damage control" pass over an extended QP ladder when
  the bitrate budget cannot be met within the standard QP range, per
  spec section 4.8.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ratecontrol provides the MinMax bitrate controller used by the
// encoder to choose a per-picture QP against a target bit budget.
package ratecontrol

import (
	"fmt"
	"math"

	"github.com/ausocean/h264codec/h264transform"
	"gonum.org/v1/gonum/stat"
)

// Sample is one (QP, bits produced) observation fed to the R(D) curve
// fit.
type Sample struct {
	QP   int
	Bits int
}

// Controller tracks the running R(D) model and picks QPs to hit a
// target bits-per-picture budget, per the MinMax strategy: bisect within
// [qpMin,qpMax] using the current power-law fit, only falling back to
// the extended-QP steepest-ascent ladder when bisection cannot converge
// within the standard range.
type Controller struct {
	TargetBits int
	QPMin      int
	QPMax      int

	samples []Sample
}

// NewController returns a Controller targeting targetBits per picture,
// searching QP in [qpMin,qpMax] (usually [0,51]) before falling back to
// h264transform.ExtendedQPSteps.
func NewController(targetBits, qpMin, qpMax int) *Controller {
	return &Controller{TargetBits: targetBits, QPMin: qpMin, QPMax: qpMax}
}

// Record adds an observed (QP, bits) sample from an already-coded
// picture to the running fit.
func (c *Controller) Record(qp, bits int) {
	c.samples = append(c.samples, Sample{QP: qp, Bits: bits})
}

// fitPowerLaw fits bits = a * exp(b*QP) (a power-law in the quantiser
// step, log-linear in QP) via least squares over ln(bits), returning
// (a,b). Returns ok=false with fewer than two distinct samples.
func (c *Controller) fitPowerLaw() (a, b float64, ok bool) {
	if len(c.samples) < 2 {
		return 0, 0, false
	}
	distinct := false
	for _, s := range c.samples[1:] {
		if s.QP != c.samples[0].QP {
			distinct = true
			break
		}
	}
	if !distinct {
		return 0, 0, false
	}
	xs := make([]float64, len(c.samples))
	ys := make([]float64, len(c.samples))
	for i, s := range c.samples {
		xs[i] = float64(s.QP)
		if s.Bits <= 0 {
			ys[i] = 0
		} else {
			ys[i] = math.Log(float64(s.Bits))
		}
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return math.Exp(intercept), slope, true
}

// predictBits estimates the bit cost of coding at qp using the current
// fit, falling back to a coarse inverse-QP heuristic with no samples
// yet.
func (c *Controller) predictBits(qp int) int {
	a, b, ok := c.fitPowerLaw()
	if !ok {
		if qp <= 0 {
			qp = 1
		}
		return c.TargetBits * 32 / qp
	}
	return int(a * math.Exp(b*float64(qp)))
}

// ChooseQP bisects [QPMin,QPMax] for the QP whose predicted bit cost is
// closest to TargetBits, returning the chosen QP and its predicted cost.
func (c *Controller) ChooseQP() (int, int) {
	lo, hi := c.QPMin, c.QPMax
	bestQP := hi
	bestBits := c.predictBits(hi)
	for lo <= hi {
		mid := (lo + hi) / 2
		bits := c.predictBits(mid)
		if abs(bits-c.TargetBits) < abs(bestBits-c.TargetBits) {
			bestQP, bestBits = mid, bits
		}
		if bits > c.TargetBits {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return bestQP, bestBits
}

// DamageControl is invoked when even QPMax cannot bring the predicted
// bit cost under budget: it steps up the extended QP ladder
// (h264transform.ExtendedQPSteps), taking the steepest-ascent direction
// (the step giving the largest marginal bit reduction per QP-step)
// until the budget is met or the ladder is exhausted.
func (c *Controller) DamageControl() (int, int, error) {
	bestQP := c.QPMax
	bestBits := c.predictBits(c.QPMax)
	if bestBits <= c.TargetBits {
		return bestQP, bestBits, nil
	}
	prevBits := bestBits
	for _, qp := range h264transform.ExtendedQPSteps {
		if qp <= c.QPMax {
			continue
		}
		bits := c.predictBits(qp)
		bestQP, bestBits = qp, bits
		if bits <= c.TargetBits {
			return qp, bits, nil
		}
		if prevBits-bits <= 0 {
			// No further improvement available along this ladder; stop
			// ascending rather than spend bits for no gain.
			break
		}
		prevBits = bits
	}
	return bestQP, bestBits, fmt.Errorf("ratecontrol: budget %d bits unreachable, best effort %d bits at QP %d", c.TargetBits, bestBits, bestQP)
}

// Trace returns the QP chosen for every picture coded so far via
// Record, in order — used by cmd/h264tool's -ratecurve diagnostic.
func (c *Controller) Trace() []Sample {
	return append([]Sample(nil), c.samples...)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
