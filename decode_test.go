package e2k

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/unixpickle/anyvec/anyvec32"
)

// forceSymbol biases the output layer so strongly toward
// one katakana index that every decode step emits it.
func forceSymbol(m *Model, idx int) {
	biases := make([]float32, 9)
	for i := range biases {
		biases[i] = -50
	}
	biases[idx] = 50
	m.Out.Biases.Vector.Set(anyvec32.MakeVectorData(biases))
}

func TestDecodeDeterminism(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)
	src := []int{1, 3, 4, 5, 2}

	first := m.Decode(src)
	for i := 0; i < 3; i++ {
		if !reflect.DeepEqual(m.Decode(src), first) {
			t.Fatal("greedy decoding is not deterministic")
		}
	}
}

func TestDecodeBounds(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)
	src := []int{1, 3, 4, 5, 2}

	out := m.Decode(src)
	if out[0] != SOS {
		t.Error("output does not start with SOS")
	}
	if len(out) > 1+DefaultMaxSteps {
		t.Errorf("output of %d indices exceeds the step budget", len(out))
	}

	out = m.DecodeN(src, 3)
	if len(out) > 4 {
		t.Errorf("output of %d indices exceeds the explicit budget", len(out))
	}
}

func TestDecodeBudgetExhaustion(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)
	forceSymbol(m, 4)

	out := m.DecodeN([]int{1, 3, 2}, 5)
	if !reflect.DeepEqual(out, []int{SOS, 4, 4, 4, 4, 4}) {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestDecodeStopsAtEOS(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)
	forceSymbol(m, EOS)

	out := m.Decode([]int{1, 3, 2})
	if !reflect.DeepEqual(out, []int{SOS, EOS}) {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestDecodeSampled(t *testing.T) {
	m := testModel(3)
	m.SetTraining(false)
	r := rand.New(rand.NewSource(5))

	out := m.DecodeSampled([]int{1, 3, 2}, 10, 3, r)
	if out[0] != SOS {
		t.Error("output does not start with SOS")
	}
	if len(out) > 11 {
		t.Errorf("output of %d indices exceeds the step budget", len(out))
	}
}

func TestC2KConvert(t *testing.T) {
	c := anyvec32.CurrentCreator()
	m := NewModel(c, ASCIIEntries().Len(), Kanas().Len(), 8, 2,
		rand.New(rand.NewSource(3)))
	m.SetTraining(false)
	conv := NewC2K(m)

	out, err := conv.Convert("burger")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<") {
		t.Errorf("markers leaked into output: %q", out)
	}

	if _, err := conv.Convert("bur_ger"); err == nil {
		t.Error("expected error for unmapped character")
	}
}

func TestP2KConvert(t *testing.T) {
	c := anyvec32.CurrentCreator()
	m := NewModel(c, EnPhones().Len(), Kanas().Len(), 8, 2,
		rand.New(rand.NewSource(3)))
	m.SetTraining(false)
	conv := NewP2K(m)

	// QQ9 is not a phoneme and should be dropped, not
	// reported.
	out, err := conv.Convert([]string{"B", "ER0", "QQ9", "G", "ER0"})
	if err != nil {
		t.Fatal(err)
	}
	for _, sym := range out {
		if strings.HasPrefix(sym, "<") {
			t.Errorf("markers leaked into output: %v", out)
		}
	}
}
