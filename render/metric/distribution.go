// Package metric provides a ready-made metric payload for the render
// MetricsStore: a distribution aggregate with count/sum/min/max and
// DDSketch-backed percentiles.
//
// The store only requires a zero value and a commutative, associative
// merge; schemas with richer needs supply their own payload type instead.
package metric

import (
	"github.com/DataDog/sketches-go/ddsketch"
)

// relativeAccuracy is the DDSketch quantile accuracy (1%).
const relativeAccuracy = 0.01

// Distribution is a mergeable aggregate over float64 samples. The zero
// value is the empty aggregate.
type Distribution struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64

	sketch *ddsketch.DDSketch
}

// Sample returns a Distribution holding a single observation, suitable for
// passing to MetricsStore.Update.
func Sample(v float64) Distribution {
	d := Distribution{
		Count: 1,
		Sum:   v,
		Min:   v,
		Max:   v,
	}
	if sketch, err := ddsketch.NewDefaultDDSketch(relativeAccuracy); err == nil {
		_ = sketch.Add(v)
		d.sketch = sketch
	}
	return d
}

// Merge combines two Distributions. It is commutative and associative up
// to sketch accuracy. The returned value may share the larger operand's
// sketch; treat the operands as consumed.
func Merge(a, b Distribution) Distribution {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}
	a.Count += b.Count
	a.Sum += b.Sum
	if b.Min < a.Min {
		a.Min = b.Min
	}
	if b.Max > a.Max {
		a.Max = b.Max
	}
	switch {
	case a.sketch == nil:
		a.sketch = b.sketch
	case b.sketch != nil:
		_ = a.sketch.MergeWith(b.sketch)
	}
	return a
}

// Mean returns the arithmetic mean, or 0 for the empty aggregate.
func (d Distribution) Mean() float64 {
	if d.Count == 0 {
		return 0
	}
	return d.Sum / float64(d.Count)
}

// Quantile returns the value at quantile q in [0, 1]. ok is false for the
// empty aggregate.
func (d Distribution) Quantile(q float64) (value float64, ok bool) {
	if d.sketch == nil || d.Count == 0 {
		return 0, false
	}
	v, err := d.sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}
