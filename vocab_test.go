package e2k

import (
	"reflect"
	"testing"
)

func TestVocabReserved(t *testing.T) {
	v := NewVocab([]string{"a", "b"})
	if v.Len() != 5 {
		t.Fatalf("expected length 5 but got %d", v.Len())
	}
	for idx, token := range map[int]string{
		PAD: PadToken,
		SOS: SOSToken,
		EOS: EOSToken,
	} {
		if got, ok := v.Index(token); !ok || got != idx {
			t.Errorf("token %q: expected index %d but got %d", token, idx, got)
		}
		if v.Symbol(idx) != token {
			t.Errorf("index %d: expected %q but got %q", idx, token, v.Symbol(idx))
		}
	}
}

func TestVocabRoundTrip(t *testing.T) {
	v := NewVocab([]string{"a", "b"})
	symbols := []string{"<sos>", "a", "b", "<eos>"}
	indices, err := v.Encode(symbols)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(indices, []int{1, 3, 4, 2}) {
		t.Errorf("unexpected indices: %v", indices)
	}
	if !reflect.DeepEqual(v.Decode(indices), symbols) {
		t.Errorf("unexpected symbols: %v", v.Decode(indices))
	}

	if _, err := v.Encode([]string{"a", "z"}); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestVocabBijection(t *testing.T) {
	for _, v := range []*Vocab{Kanas(), EnPhones(), ASCIIEntries()} {
		for i := 0; i < v.Len(); i++ {
			idx, ok := v.Index(v.Symbol(i))
			if !ok || idx != i {
				t.Errorf("symbol %q does not map back to %d", v.Symbol(i), i)
			}
		}
	}
}

func TestBuiltinVocabs(t *testing.T) {
	if _, ok := Kanas().Index("ア"); !ok {
		t.Error("missing katakana")
	}
	if _, ok := Kanas().Index("ー"); !ok {
		t.Error("missing long vowel mark")
	}
	if _, ok := EnPhones().Index("AH0"); !ok {
		t.Error("missing stressed phoneme")
	}
	if _, ok := EnPhones().Index("HH"); !ok {
		t.Error("missing consonant")
	}
	if _, ok := EnPhones().Index("AH"); ok {
		t.Error("vowel without stress digit should not be present")
	}
	if _, ok := ASCIIEntries().Index("'"); !ok {
		t.Error("missing apostrophe")
	}
	if _, ok := ASCIIEntries().Index("q"); !ok {
		t.Error("missing letter")
	}
}
