// Package train implements supervised training for e2k
// models: teacher forcing over collated batches, masked
// cross-entropy, and an epoch loop with validation,
// learning-rate decay, and checkpointing.
package train

import (
	"errors"

	"github.com/VOICEVOX/e2k"
	"github.com/VOICEVOX/e2k/corpus"
	"github.com/VOICEVOX/e2k/nn"
	"github.com/VOICEVOX/e2k/sgd"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Trainer creates batches, computes masked
// cross-entropy costs, and produces gradients for a
// Model.
type Trainer struct {
	Model  *e2k.Model
	Params []*anydiff.Var

	// After every gradient computation, LastCost is set to
	// the average cost from the batch.
	LastCost float64
}

// Fetch collates a batch for the subset of samples.
// The s argument must be a *corpus.List.
// The batch may not be empty.
func (t *Trainer) Fetch(s sgd.SampleList) (sgd.Batch, error) {
	if s.Len() == 0 {
		return nil, errors.New("fetch batch: empty batch")
	}
	samples, err := s.(*corpus.List).Samples()
	if err != nil {
		return nil, err
	}
	return corpus.Collate(samples), nil
}

// TotalCost computes the mean cross-entropy for the
// batch.
//
// The cost at each decoder position compares the model's
// log-probabilities against the next target symbol;
// positions whose next symbol is padding are excluded
// from both the sum and the mean.
func (t *Trainer) TotalCost(b *corpus.Batch) anydiff.Res {
	outs := t.Model.Apply(b.Src, b.Tgt, b.SrcMask)
	c := t.Model.Creator()
	kanaCount := t.Model.Out.OutCount
	batch := len(b.Src)

	var total anydiff.Res
	var validCount int
	for step, out := range outs {
		oneHot := make([]float64, batch*kanaCount)
		for bi := 0; bi < batch; bi++ {
			if b.TgtMask[bi][step+1] {
				oneHot[bi*kanaCount+b.Tgt[bi][step+1]] = 1
				validCount++
			}
		}
		desired := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(oneHot)))
		costs := nn.DotCost{}.Cost(desired, out, batch)
		if total == nil {
			total = anydiff.Sum(costs)
		} else {
			total = anydiff.Add(total, anydiff.Sum(costs))
		}
	}
	return anydiff.Scale(total, c.MakeNumeric(1/float64(validCount)))
}

// Gradient computes the gradient for the batch's cost.
// It also sets t.LastCost to the numerical value of the
// cost.
//
// The b argument must be a *corpus.Batch.
func (t *Trainer) Gradient(b sgd.Batch) anydiff.Grad {
	res := anydiff.NewGrad(t.Params...)

	cost := t.TotalCost(b.(*corpus.Batch))
	t.LastCost = floatValue(anyvec.Sum(cost.Output()))

	c := cost.Output().Creator()
	upstream := c.MakeVectorData(c.MakeNumericList([]float64{1}))
	cost.Propagate(upstream, res)

	return res
}

func floatValue(num anyvec.Numeric) float64 {
	switch num := num.(type) {
	case float32:
		return float64(num)
	case float64:
		return num
	default:
		return 0
	}
}
