package e2k

import (
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/unixpickle/anyvec/anyvec32"
)

func testModel(seed int64) *Model {
	r := rand.New(rand.NewSource(seed))
	return NewModel(anyvec32.CurrentCreator(), 7, 9, 8, 2, r)
}

func TestModelApplyShapes(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)

	src := [][]int{{1, 3, 4, 2, 0}, {1, 5, 2, 0, 0}}
	srcMask := [][]bool{
		{true, true, true, true, false},
		{true, true, true, false, false},
	}
	tgt := [][]int{{1, 3, 3, 2}, {1, 4, 2, 0}}

	outs := m.Apply(src, tgt, srcMask)
	if len(outs) != 3 {
		t.Fatalf("expected 3 decoder steps but got %d", len(outs))
	}
	for i, out := range outs {
		if out.Output().Len() != 2*9 {
			t.Errorf("step %d: expected %d components but got %d", i, 2*9,
				out.Output().Len())
		}
	}
}

func TestModelParameters(t *testing.T) {
	m := testModel(3)
	// Two embeddings, four GRUs, two fully-connected
	// layers, and four projections per attention head.
	expected := 2 + 4*10 + 2*2 + 4*2
	if len(m.Parameters()) != expected {
		t.Errorf("expected %d parameters but got %d", expected, len(m.Parameters()))
	}
}

func TestModelSerialize(t *testing.T) {
	m := testModel(3)
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := SaveModel(path, m); err != nil {
		t.Fatal(err)
	}
	m1, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, m1) {
		t.Fatal("incorrect result")
	}
}
