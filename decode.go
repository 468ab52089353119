package e2k

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// DefaultMaxSteps is the decoding step budget.
// It bounds generation when the model never emits EOS.
const DefaultMaxSteps = 16

// Decode greedily decodes a source index sequence into a
// katakana index sequence.
//
// The result always starts with SOS and ends either with
// EOS or, if the step budget runs out first, with the
// last emitted index.
// Decoding is deterministic for a fixed model and source.
func (m *Model) Decode(src []int) []int {
	return m.DecodeN(src, DefaultMaxSteps)
}

// DecodeN is Decode with an explicit step budget.
func (m *Model) DecodeN(src []int, maxSteps int) []int {
	enc, preState, postState := m.startDecoding(src)
	res := []int{SOS}
	for count := 0; count < maxSteps; count++ {
		logits := m.decodeStep(enc, &preState, &postState, res[len(res)-1], len(src))
		idx := anyvec.MaxIndex(logits.Output())
		res = append(res, idx)
		if idx == EOS {
			break
		}
	}
	return res
}

// DecodeSampled decodes with top-k sampling instead of
// greedy argmax, drawing from the k most likely katakana
// symbols at each step.
func (m *Model) DecodeSampled(src []int, maxSteps, topK int, r *rand.Rand) []int {
	enc, preState, postState := m.startDecoding(src)
	res := []int{SOS}
	for count := 0; count < maxSteps; count++ {
		logits := m.decodeStep(enc, &preState, &postState, res[len(res)-1], len(src))
		idx := sampleTopK(floatValues(logits.Output()), topK, r)
		res = append(res, idx)
		if idx == EOS {
			break
		}
	}
	return res
}

// startDecoding encodes the source once and produces the
// two fresh decoder states for an inference call.
// The states belong to the call alone and are discarded
// when it returns.
func (m *Model) startDecoding(src []int) (enc, preState, postState anydiff.Res) {
	steps := m.encodeBatch([][]int{src})
	enc = anydiff.NewConst(anydiff.Concat(steps...).Output())
	preState = anydiff.NewConst(m.PreDec.Start(1).Output())
	postState = anydiff.NewConst(m.PostDec.Start(1).Output())
	return
}

// decodeStep advances the decoder by one symbol, updating
// both recurrent states in place, and returns the output
// logits.
// The intermediate graph is cut off with constants since
// inference never back-propagates.
func (m *Model) decodeStep(enc anydiff.Res, preState, postState *anydiff.Res, last, srcLen int) anydiff.Res {
	emb := m.KanaEmbed.Embed([]int{last})
	*preState = anydiff.NewConst(m.PreDec.Step(*preState, emb, 1).Output())
	attn := m.Attn.Apply(*preState, enc, 1, srcLen, nil)
	in := anydiff.Concat(*preState, attn)
	*postState = anydiff.NewConst(m.PostDec.Step(*postState, in, 1).Output())
	return m.Out.Apply(*postState, 1)
}

// A P2K converts English phoneme sequences to katakana.
type P2K struct {
	Model *Model
}

// NewP2K creates a P2K around a trained model.
func NewP2K(m *Model) *P2K {
	return &P2K{Model: m}
}

// Convert transliterates a phoneme sequence.
// Phonemes outside the phoneme vocabulary are dropped,
// tolerating converter quirks, rather than reported.
func (p *P2K) Convert(phonemes []string) ([]string, error) {
	src := []int{SOS}
	for _, ph := range phonemes {
		if idx, ok := EnPhones().Index(ph); ok {
			src = append(src, idx)
		}
	}
	src = append(src, EOS)
	out := p.Model.Decode(src)
	return Kanas().Decode(stripMarkers(out)), nil
}

// A C2K converts ASCII spellings to katakana.
type C2K struct {
	Model *Model
}

// NewC2K creates a C2K around a trained model.
func NewC2K(m *Model) *C2K {
	return &C2K{Model: m}
}

// Convert transliterates an ASCII word.
// Unlike P2K, the character vocabulary is closed: a
// character outside it is an error.
func (c *C2K) Convert(word string) (string, error) {
	src := []int{SOS}
	for _, r := range word {
		idx, ok := ASCIIEntries().Index(string(r))
		if !ok {
			return "", fmt.Errorf("convert %q: unmapped character: %q", word, r)
		}
		src = append(src, idx)
	}
	src = append(src, EOS)
	out := c.Model.Decode(src)
	return strings.Join(Kanas().Decode(stripMarkers(out)), ""), nil
}

// stripMarkers removes the leading SOS and, if present,
// the trailing EOS from a decoded sequence.
func stripMarkers(ids []int) []int {
	if len(ids) > 0 && ids[0] == SOS {
		ids = ids[1:]
	}
	if len(ids) > 0 && ids[len(ids)-1] == EOS {
		ids = ids[:len(ids)-1]
	}
	return ids
}

// sampleTopK samples an index among the k highest logits,
// weighted by their softmax probabilities.
func sampleTopK(logits []float64, k int, r *rand.Rand) int {
	if k <= 0 || k > len(logits) {
		k = len(logits)
	}
	order := make([]int, len(logits))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return logits[order[i]] > logits[order[j]]
	})
	order = order[:k]

	max := logits[order[0]]
	var total float64
	probs := make([]float64, k)
	for i, idx := range order {
		probs[i] = math.Exp(logits[idx] - max)
		total += probs[i]
	}
	x := r.Float64() * total
	for i, p := range probs {
		x -= p
		if x <= 0 {
			return order[i]
		}
	}
	return order[k-1]
}

// floatValues reads a vector back as float64s.
func floatValues(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}
