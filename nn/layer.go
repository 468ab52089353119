// Package nn provides the neural network building blocks
// used by the e2k sequence-to-sequence model: dense and
// embedding layers, a GRU cell, multi-head attention, and
// a cross-entropy cost.
package nn

import (
	"github.com/unixpickle/anydiff"
)

// A Parameterizer is anything with learnable variables.
//
// The parameters of a Parameterizer must be in the same
// order every time Parameters() is called.
type Parameterizer interface {
	Parameters() []*anydiff.Var
}

// A Layer is a composable computation unit.
//
// A Layer's Apply method is inherently batched.
// The input's length must be divisible by the batch size,
// since the batch size indicates how many equally-long
// vectors are packed into the input vector.
type Layer interface {
	Apply(in anydiff.Res, batchSize int) anydiff.Res
}

// AllParameters aggregates the parameters of every
// argument which implements Parameterizer.
func AllParameters(layers ...interface{}) []*anydiff.Var {
	var res []*anydiff.Var
	for _, l := range layers {
		if p, ok := l.(Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}

// ConcatBatch joins two batches item-wise, producing a
// vector like [in1[0], in2[0], in1[1], in2[1], ...],
// where in1[i] is the i-th vector in the batch in1.
func ConcatBatch(in1, in2 anydiff.Res, n int) anydiff.Res {
	return anydiff.Pool(in1, func(in1 anydiff.Res) anydiff.Res {
		return anydiff.Pool(in2, func(in2 anydiff.Res) anydiff.Res {
			var res []anydiff.Res
			len1 := in1.Output().Len() / n
			len2 := in2.Output().Len() / n
			for i := 0; i < n; i++ {
				res = append(res, anydiff.Slice(in1, i*len1, (i+1)*len1),
					anydiff.Slice(in2, i*len2, (i+1)*len2))
			}
			return anydiff.Concat(res...)
		})
	})
}
