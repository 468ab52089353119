package nn

import (
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec32"
)

func TestEmbeddingLookup(t *testing.T) {
	table := anyvec32.MakeVectorData([]float32{
		1, 2,
		3, 4,
		5, 6,
	})
	e := &Embedding{VocabSize: 3, OutCount: 2, Weights: anydiff.NewVar(table)}

	out := e.Embed([]int{2, 0, 2}).Output().Data().([]float32)
	expected := []float32{5, 6, 1, 2, 5, 6}
	for i, x := range expected {
		if out[i] != x {
			t.Errorf("component %d: expected %f but got %f", i, x, out[i])
		}
	}
}

func TestEmbeddingProp(t *testing.T) {
	c := anyvec32.CurrentCreator()
	e := NewEmbedding(c, 4, 3, nil)
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return e.Embed([]int{1, 3, 1})
		},
		V: e.Parameters(),
	}
	checker.FullCheck(t)
}
