// Package e2k converts English words to katakana using a
// sequence-to-sequence neural network.
// It supports two directions: phoneme-to-katakana (P2K),
// which consumes the output of a grapheme-to-phoneme
// converter, and character-to-katakana (C2K), which
// consumes raw ASCII spellings.
package e2k

import "fmt"

// Reserved indices, shared by every vocabulary.
const (
	PAD = 0
	SOS = 1
	EOS = 2
)

// Symbolic names for the reserved indices.
const (
	PadToken = "<pad>"
	SOSToken = "<sos>"
	EOSToken = "<eos>"
)

// A Vocab is a fixed bijection between symbols and
// indices.
// Index 0 is always PAD, index 1 is SOS, and index 2 is
// EOS, so loss masking and stopping checks can use the
// same constants for every vocabulary.
type Vocab struct {
	symbols []string
	indices map[string]int
}

// NewVocab creates a Vocab from a list of symbols.
// The reserved PAD, SOS, and EOS tokens are prepended
// automatically and must not appear in the list.
func NewVocab(symbols []string) *Vocab {
	all := make([]string, 0, len(symbols)+3)
	all = append(all, PadToken, SOSToken, EOSToken)
	all = append(all, symbols...)
	indices := make(map[string]int, len(all))
	for i, s := range all {
		if _, ok := indices[s]; ok {
			panic("duplicate symbol: " + s)
		}
		indices[s] = i
	}
	return &Vocab{symbols: all, indices: indices}
}

// Len returns the number of symbols, including the
// reserved tokens.
func (v *Vocab) Len() int {
	return len(v.symbols)
}

// Index looks up the index of a symbol.
// The second return value reports whether the symbol is
// part of the vocabulary.
func (v *Vocab) Index(symbol string) (int, bool) {
	idx, ok := v.indices[symbol]
	return idx, ok
}

// Symbol returns the symbol at an index.
// It panics if the index is out of range.
func (v *Vocab) Symbol(idx int) string {
	return v.symbols[idx]
}

// Encode maps a symbol sequence to an index sequence.
// It fails if any symbol is not in the vocabulary.
func (v *Vocab) Encode(symbols []string) ([]int, error) {
	res := make([]int, len(symbols))
	for i, s := range symbols {
		idx, ok := v.indices[s]
		if !ok {
			return nil, fmt.Errorf("encode: unknown symbol: %q", s)
		}
		res[i] = idx
	}
	return res, nil
}

// Decode maps an index sequence back to symbols.
// It panics if any index is out of range.
func (v *Vocab) Decode(indices []int) []string {
	res := make([]string, len(indices))
	for i, idx := range indices {
		res[i] = v.symbols[idx]
	}
	return res
}
