package corpus

import (
	"crypto/md5"
	"errors"
	"fmt"
	"math/rand"

	"github.com/VOICEVOX/e2k"
	"github.com/VOICEVOX/e2k/sgd"
)

// A Sample is one converted corpus entry.
// Source and Target are SOS/EOS-wrapped index sequences.
// In full-evaluation mode Target is nil and Targets holds
// every acceptable rendering instead.
type Sample struct {
	Source  []int
	Target  []int
	Targets [][]int
}

// A Dataset converts corpus entries to index sequences on
// demand and caches the results.
//
// In the default mode, one katakana rendering is sampled
// uniformly per entry at first access and that exact
// choice is cached: repeated epochs see the same target.
// This memoization is deliberate and load-bearing for
// reproducibility; it is not re-sampled.
type Dataset struct {
	entries []Entry
	g2p     G2P
	p2k     bool
	full    bool
	rand    *rand.Rand

	cache     map[int]*Sample
	fullCache map[int]*Sample
}

// NewDataset creates a Dataset over corpus entries.
//
// If p2k is true, sources are converted through g2p and
// the phoneme vocabulary; otherwise each character is
// looked up in the ASCII vocabulary.
// The g2p argument may be nil in C2K mode.
// If r is nil, the global random source is used for
// target sampling.
func NewDataset(entries []Entry, g2p G2P, p2k bool, r *rand.Rand) *Dataset {
	if p2k && g2p == nil {
		panic("P2K mode requires a G2P converter")
	}
	return &Dataset{
		entries:   entries,
		g2p:       g2p,
		p2k:       p2k,
		rand:      r,
		cache:     map[int]*Sample{},
		fullCache: map[int]*Sample{},
	}
}

// Len returns the number of corpus entries.
func (d *Dataset) Len() int {
	return len(d.entries)
}

// SetReturnFull toggles full-evaluation mode, in which At
// returns every rendering of an entry instead of one
// sampled rendering.
func (d *Dataset) SetReturnFull(full bool) {
	d.full = full
}

// At converts the entry at an index.
// The first access converts and caches; later accesses
// return the cached sample, including the cached target
// choice.
func (d *Dataset) At(idx int) (*Sample, error) {
	cache := d.cache
	if d.full {
		cache = d.fullCache
	}
	if s, ok := cache[idx]; ok {
		return s, nil
	}

	entry := d.entries[idx]
	src, err := d.convertSource(entry.Word)
	if err != nil {
		return nil, err
	}

	sample := &Sample{Source: src}
	if d.full {
		for _, k := range entry.Kata {
			tgt, err := encodeKana(k)
			if err != nil {
				return nil, err
			}
			sample.Targets = append(sample.Targets, tgt)
		}
	} else {
		kata := entry.Kata[intn(d.rand, len(entry.Kata))]
		tgt, err := encodeKana(kata)
		if err != nil {
			return nil, err
		}
		sample.Target = tgt
	}
	cache[idx] = sample
	return sample, nil
}

// convertSource maps a word to a wrapped source index
// sequence.
//
// P2K drops phonemes that are missing from the phoneme
// vocabulary rather than failing, tolerating quirks of
// the converter; stress digits are kept as part of the
// phoneme symbol.
// C2K has a closed character set, so an unmapped
// character is an error.
func (d *Dataset) convertSource(word string) ([]int, error) {
	res := []int{e2k.SOS}
	if d.p2k {
		for _, ph := range d.g2p(word) {
			if idx, ok := e2k.EnPhones().Index(ph); ok {
				res = append(res, idx)
			}
		}
	} else {
		for _, r := range word {
			idx, ok := e2k.ASCIIEntries().Index(string(r))
			if !ok {
				return nil, fmt.Errorf("convert %q: unmapped character: %q", word, r)
			}
			res = append(res, idx)
		}
	}
	return append(res, e2k.EOS), nil
}

func encodeKana(kata string) ([]int, error) {
	res := []int{e2k.SOS}
	for _, r := range kata {
		idx, ok := e2k.Kanas().Index(string(r))
		if !ok {
			return nil, fmt.Errorf("encode %q: unknown katakana: %q", kata, r)
		}
		res = append(res, idx)
	}
	return append(res, e2k.EOS), nil
}

func intn(r *rand.Rand, n int) int {
	if r != nil {
		return r.Intn(n)
	}
	return rand.Intn(n)
}

// A List is a shuffleable view over a Dataset, usable as
// an sgd.SampleList and sgd.Hasher.
type List struct {
	Data    *Dataset
	Indices []int
}

// NewList creates a List covering the whole Dataset in
// corpus order.
func NewList(d *Dataset) *List {
	indices := make([]int, d.Len())
	for i := range indices {
		indices[i] = i
	}
	return &List{Data: d, Indices: indices}
}

// Len returns the number of samples in the view.
func (l *List) Len() int {
	return len(l.Indices)
}

// Swap swaps two samples.
func (l *List) Swap(i, j int) {
	l.Indices[i], l.Indices[j] = l.Indices[j], l.Indices[i]
}

// Slice produces a shallow subset of the view.
func (l *List) Slice(i, j int) sgd.SampleList {
	return &List{Data: l.Data, Indices: l.Indices[i:j:j]}
}

// Hash hashes the source word, giving a split that is
// stable across runs and shuffles.
func (l *List) Hash(i int) []byte {
	sum := md5.Sum([]byte(l.Data.entries[l.Indices[i]].Word))
	return sum[:]
}

// Sample converts the i-th sample in the view.
func (l *List) Sample(i int) (*Sample, error) {
	return l.Data.At(l.Indices[i])
}

// Samples converts every sample in the view.
func (l *List) Samples() ([]*Sample, error) {
	res := make([]*Sample, l.Len())
	for i := range res {
		s, err := l.Sample(i)
		if err != nil {
			return nil, err
		}
		res[i] = s
	}
	return res, nil
}

// ErrEmptyList is returned when a batch is requested from
// an empty view.
var ErrEmptyList = errors.New("empty sample list")
