package corpus

import (
	"testing"

	"github.com/VOICEVOX/e2k"
)

func TestCollate(t *testing.T) {
	samples := []*Sample{
		{Source: []int{1, 3, 2}, Target: []int{1, 4, 4, 4, 2}},
		{Source: []int{1, 3, 3, 4, 2}, Target: []int{1, 4, 2}},
		{Source: []int{1, 2}, Target: []int{1, 5, 5, 2}},
	}
	b := Collate(samples)

	for bi, s := range samples {
		if len(b.Src[bi]) != 5 || len(b.Tgt[bi]) != 5 {
			t.Fatalf("sample %d: rows not padded to the longest sequence", bi)
		}
		for ti := 0; ti < 5; ti++ {
			if got := b.SrcMask[bi][ti]; got != (ti < len(s.Source)) {
				t.Errorf("sample %d: bad source mask at %d", bi, ti)
			}
			if got := b.TgtMask[bi][ti]; got != (ti < len(s.Target)) {
				t.Errorf("sample %d: bad target mask at %d", bi, ti)
			}
			if ti < len(s.Source) {
				if b.Src[bi][ti] != s.Source[ti] {
					t.Errorf("sample %d: source changed at %d", bi, ti)
				}
			} else if b.Src[bi][ti] != e2k.PAD {
				t.Errorf("sample %d: source not padded at %d", bi, ti)
			}
		}
	}
}
