package corpus

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/VOICEVOX/e2k"
)

func TestDatasetWrapping(t *testing.T) {
	entries := []Entry{{Word: "abc", Kata: []string{"アブク"}}}
	d := NewDataset(entries, nil, false, rand.New(rand.NewSource(1)))

	s, err := d.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Source[0] != e2k.SOS || s.Source[len(s.Source)-1] != e2k.EOS {
		t.Error("source is not marker-wrapped")
	}
	if s.Target[0] != e2k.SOS || s.Target[len(s.Target)-1] != e2k.EOS {
		t.Error("target is not marker-wrapped")
	}
	if len(s.Source) != 5 {
		t.Errorf("expected 5 source indices but got %d", len(s.Source))
	}
	if len(s.Target) != 5 {
		t.Errorf("expected 5 target indices but got %d", len(s.Target))
	}
}

func TestDatasetCachedSampling(t *testing.T) {
	entries := []Entry{{Word: "abc", Kata: []string{"アブク", "エービーシー"}}}
	d := NewDataset(entries, nil, false, rand.New(rand.NewSource(1)))

	first, err := d.At(0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		s, err := d.At(0)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(s.Target, first.Target) {
			t.Fatal("cached target changed between accesses")
		}
	}
}

func TestDatasetFullMode(t *testing.T) {
	entries := []Entry{{Word: "abc", Kata: []string{"アブク", "エービーシー"}}}
	d := NewDataset(entries, nil, false, rand.New(rand.NewSource(1)))
	d.SetReturnFull(true)

	s, err := d.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Target != nil {
		t.Error("full mode should not pick a single target")
	}
	if len(s.Targets) != 2 {
		t.Fatalf("expected 2 renderings but got %d", len(s.Targets))
	}
	for i, tgt := range s.Targets {
		if tgt[0] != e2k.SOS || tgt[len(tgt)-1] != e2k.EOS {
			t.Errorf("rendering %d is not marker-wrapped", i)
		}
	}
}

func TestDatasetUnmappedCharacter(t *testing.T) {
	entries := []Entry{{Word: "naïve", Kata: []string{"ナイーブ"}}}
	d := NewDataset(entries, nil, false, nil)
	if _, err := d.At(0); err == nil {
		t.Error("expected error for unmapped character")
	}
}

func TestDatasetPhonemeDrop(t *testing.T) {
	g2p := func(word string) []string {
		return []string{"HH", "QQ9", "AH0"}
	}
	entries := []Entry{{Word: "huh", Kata: []string{"ハ"}}}
	d := NewDataset(entries, g2p, true, nil)

	s, err := d.At(0)
	if err != nil {
		t.Fatal(err)
	}
	// QQ9 is not a phoneme and should be skipped, leaving
	// SOS, HH, AH0, EOS.
	if len(s.Source) != 4 {
		t.Errorf("expected 4 source indices but got %d", len(s.Source))
	}
}

func TestListSliceAndHash(t *testing.T) {
	entries := []Entry{
		{Word: "one", Kata: []string{"ワン"}},
		{Word: "two", Kata: []string{"ツー"}},
		{Word: "three", Kata: []string{"スリー"}},
	}
	l := NewList(NewDataset(entries, nil, false, nil))
	if l.Len() != 3 {
		t.Fatalf("expected length 3 but got %d", l.Len())
	}

	hashBefore := l.Hash(2)
	l.Swap(0, 2)
	if reflect.DeepEqual(l.Hash(2), hashBefore) {
		t.Error("hash should follow the sample, not the position")
	}
	if !reflect.DeepEqual(l.Hash(0), hashBefore) {
		t.Error("swapped sample should keep its hash")
	}

	sub, ok := l.Slice(1, 3).(*List)
	if !ok {
		t.Fatal("slice did not produce a List")
	}
	if sub.Len() != 2 {
		t.Errorf("expected sliced length 2 but got %d", sub.Len())
	}
}
