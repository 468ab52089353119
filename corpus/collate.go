package corpus

import "github.com/VOICEVOX/e2k"

// A Batch is one collated mini-batch: batch-major padded
// index matrices plus position-validity masks.
// It is transient, living only for one training or
// validation step.
type Batch struct {
	// Src and Tgt are padded with the PAD index.
	Src [][]int
	Tgt [][]int

	// SrcMask and TgtMask mark the real positions:
	// mask[b][t] is true exactly when t is within the b-th
	// sequence's length.
	SrcMask [][]bool
	TgtMask [][]bool
}

// Collate pads a list of samples into a Batch.
// Sample order is preserved across all four outputs.
func Collate(samples []*Sample) *Batch {
	var maxSrc, maxTgt int
	for _, s := range samples {
		if len(s.Source) > maxSrc {
			maxSrc = len(s.Source)
		}
		if len(s.Target) > maxTgt {
			maxTgt = len(s.Target)
		}
	}

	res := &Batch{
		Src:     make([][]int, len(samples)),
		Tgt:     make([][]int, len(samples)),
		SrcMask: make([][]bool, len(samples)),
		TgtMask: make([][]bool, len(samples)),
	}
	for i, s := range samples {
		res.Src[i], res.SrcMask[i] = padSequence(s.Source, maxSrc)
		res.Tgt[i], res.TgtMask[i] = padSequence(s.Target, maxTgt)
	}
	return res
}

func padSequence(seq []int, length int) ([]int, []bool) {
	padded := make([]int, length)
	mask := make([]bool, length)
	for t := 0; t < length; t++ {
		if t < len(seq) {
			padded[t] = seq[t]
			mask[t] = true
		} else {
			padded[t] = e2k.PAD
		}
	}
	return padded, mask
}
