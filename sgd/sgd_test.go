package sgd

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
)

type intList []int

func (i intList) Len() int {
	return len(i)
}

func (i intList) Swap(j, k int) {
	i[j], i[k] = i[k], i[j]
}

func (i intList) Slice(j, k int) SampleList {
	return append(intList{}, i[j:k]...)
}

func (i intList) Hash(j int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(i[j]))
	sum := md5.Sum(buf[:])
	return sum[:]
}

func TestExpRater(t *testing.T) {
	r := &ExpRater{Initial: 1e-3, Decay: 0.8}
	for _, test := range []struct {
		Epoch float64
		Rate  float64
	}{
		{0, 1e-3},
		{0.5, 1e-3},
		{1, 8e-4},
		{3, 5.12e-4},
	} {
		if actual := r.Rate(test.Epoch); math.Abs(actual-test.Rate) > 1e-12 {
			t.Errorf("epoch %f: expected %e but got %e", test.Epoch, test.Rate, actual)
		}
	}
}

func TestShuffleDeterminism(t *testing.T) {
	first := make(intList, 100)
	second := make(intList, 100)
	for i := range first {
		first[i] = i
		second[i] = i
	}
	Shuffle(rand.New(rand.NewSource(1337)), first)
	Shuffle(rand.New(rand.NewSource(1337)), second)
	for i, x := range first {
		if second[i] != x {
			t.Fatalf("index %d: %d != %d", i, x, second[i])
		}
	}
}

func TestHashSplit(t *testing.T) {
	list := make(intList, 1000)
	for i := range list {
		list[i] = i
	}
	left, right := HashSplit(list, 0.1)
	if left.Len()+right.Len() != list.Len() {
		t.Fatalf("bad partition size: %d + %d", left.Len(), right.Len())
	}
	if left.Len() == 0 || right.Len() == 0 {
		t.Fatal("degenerate partition")
	}
	if math.Abs(float64(left.Len())-100) > 50 {
		t.Errorf("unlikely left size: %d", left.Len())
	}

	// The same data must always split the same way.
	relisted := make(intList, 1000)
	for i := range relisted {
		relisted[i] = i
	}
	left2, _ := HashSplit(relisted, 0.1)
	if left2.Len() != left.Len() {
		t.Errorf("split changed: %d != %d", left2.Len(), left.Len())
	}
}
