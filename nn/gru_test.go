package nn

import (
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

func TestGRUShapes(t *testing.T) {
	c := anyvec32.CurrentCreator()
	g := NewGRU(c, 3, 5, nil)

	state := g.Start(4)
	if state.Output().Len() != 4*5 {
		t.Fatalf("bad start state size: %d", state.Output().Len())
	}
	in := anydiff.NewConst(c.MakeVector(4 * 3))
	out := g.Step(state, in, 4)
	if out.Output().Len() != 4*5 {
		t.Fatalf("bad output size: %d", out.Output().Len())
	}
	if len(g.Parameters()) != 10 {
		t.Errorf("expected 10 parameters, but got %d", len(g.Parameters()))
	}
}

func TestGRUProp(t *testing.T) {
	c := anyvec32.CurrentCreator()
	g := NewGRU(c, 2, 3, nil)

	inVar := anydiff.NewVar(anyvec32.MakeVectorData([]float32{
		1.000009682963246, 0.887353762043918,
		1.390648176281434, -0.709610839726816,
	}))

	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			state := g.Step(g.Start(2), inVar, 2)
			return g.Step(state, inVar, 2)
		},
		V: append([]*anydiff.Var{inVar}, g.Parameters()...),
	}
	checker.FullCheck(t)
}

func TestGRUStartRepeats(t *testing.T) {
	c := anyvec32.CurrentCreator()
	g := NewGRU(c, 2, 3, nil)
	anyvec.Rand(g.StartState.Vector, anyvec.Normal, nil)
	single := g.Start(1).Output().Data().([]float32)
	double := g.Start(2).Output().Data().([]float32)
	for i, x := range single {
		if double[i] != x || double[i+3] != x {
			t.Fatalf("start state not repeated at %d", i)
		}
	}
}
