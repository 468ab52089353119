// Package sgd provides the Stochastic Gradient Descent
// plumbing used to train e2k models: sample lists,
// gradient transformers, learning-rate schedules, and a
// deterministic hash-based data split.
package sgd

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
)

// A SampleList represents a list of training samples.
type SampleList interface {
	// Len returns the number of samples.
	Len() int

	// Swap swaps two samples.
	Swap(i, j int)

	// Slice generates a shallow copy of a subset of the
	// list.
	Slice(i, j int) SampleList
}

// A Batch is an immutable collection of fetched samples,
// ready to be fed to a Gradienter.
type Batch interface{}

// A Fetcher is responsible for fetching Batches for
// SampleLists.
type Fetcher interface {
	Fetch(s SampleList) (Batch, error)
}

// A Gradienter computes a gradient for a Batch.
//
// The same gradient instance may be re-used by successive
// calls to Gradient.
type Gradienter interface {
	Gradient(b Batch) anydiff.Grad
}

// A Transformer transforms gradients.
// For example, pre-conditioning could be implemented as a
// transformer.
//
// After its first call, a Transformer expects to see
// gradients of the same form (i.e. containing the same
// variables).
//
// A Transformer may modify its own input and return the
// same gradient as an output.
type Transformer interface {
	Transform(g anydiff.Grad) anydiff.Grad
}

// A Rater determines the learning rate given the epoch
// number.
// An "epoch" is a full pass over the training set, so
// fractional epochs are possible.
type Rater interface {
	Rate(epoch float64) float64
}

// A ConstRater is a Rater which always returns the same
// constant learning rate.
type ConstRater float64

// Rate returns float64(c).
func (c ConstRater) Rate(epoch float64) float64 {
	return float64(c)
}

// An ExpRater decays the learning rate geometrically: the
// rate for an epoch is Initial * Decay^floor(epoch).
type ExpRater struct {
	Initial float64
	Decay   float64
}

// Rate returns the decayed rate for the epoch.
func (e *ExpRater) Rate(epoch float64) float64 {
	return e.Initial * math.Pow(e.Decay, math.Floor(epoch))
}

// Shuffle shuffles a list of samples using r.
// If r is nil, the global random source is used.
func Shuffle(r *rand.Rand, s SampleList) {
	intn := rand.Intn
	if r != nil {
		intn = r.Intn
	}
	for i := 0; i < s.Len(); i++ {
		j := i + intn(s.Len()-i)
		s.Swap(i, j)
	}
}

// Step scales the gradient by -rate and adds it to the
// variables it is for.
func Step(g anydiff.Grad, rate float64) {
	for _, v := range g {
		g.Scale(v.Creator().MakeNumeric(-rate))
		break
	}
	g.AddToVars()
}
