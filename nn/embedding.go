package nn

import (
	"errors"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var e Embedding
	serializer.RegisterTypedDeserializer(e.SerializerType(), DeserializeEmbedding)
}

// An Embedding maps symbol indices to learned vectors.
//
// The lookup is implemented as a one-hot matrix product
// so that gradients flow back to the table.
type Embedding struct {
	VocabSize int
	OutCount  int
	Weights   *anydiff.Var
}

// DeserializeEmbedding attempts to deserialize an
// Embedding.
func DeserializeEmbedding(d []byte) (*Embedding, error) {
	var vocab serializer.Int
	var weights *anyvecsave.S
	if err := serializer.DeserializeAny(d, &vocab, &weights); err != nil {
		return nil, essentials.AddCtx("deserialize Embedding", err)
	}
	if vocab == 0 || weights.Vector.Len()%int(vocab) != 0 {
		return nil, errors.New("deserialize Embedding: invalid table size")
	}
	return &Embedding{
		VocabSize: int(vocab),
		OutCount:  weights.Vector.Len() / int(vocab),
		Weights:   anydiff.NewVar(weights.Vector),
	}, nil
}

// NewEmbedding creates a randomized Embedding with
// standard normal entries.
// If r is nil, the global random source is used.
func NewEmbedding(c anyvec.Creator, vocab, out int, r *rand.Rand) *Embedding {
	res := &Embedding{
		VocabSize: vocab,
		OutCount:  out,
		Weights:   anydiff.NewVar(c.MakeVector(vocab * out)),
	}
	anyvec.Rand(res.Weights.Vector, anyvec.Normal, r)
	return res
}

// Embed looks up a batch of indices, producing one packed
// output vector per index.
// It panics if an index is out of range.
func (e *Embedding) Embed(ids []int) anydiff.Res {
	c := e.Weights.Vector.Creator()
	oneHot := make([]float64, len(ids)*e.VocabSize)
	for i, id := range ids {
		if id < 0 || id >= e.VocabSize {
			panic("embedding index out of range")
		}
		oneHot[i*e.VocabSize+id] = 1
	}
	sel := &anydiff.Matrix{
		Data: anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(oneHot))),
		Rows: len(ids),
		Cols: e.VocabSize,
	}
	table := &anydiff.Matrix{
		Data: e.Weights,
		Rows: e.VocabSize,
		Cols: e.OutCount,
	}
	return anydiff.MatMul(false, false, sel, table).Data
}

// Parameters returns the embedding table.
func (e *Embedding) Parameters() []*anydiff.Var {
	return []*anydiff.Var{e.Weights}
}

// SerializerType returns the unique ID used to serialize
// an Embedding with the serializer package.
func (e *Embedding) SerializerType() string {
	return "github.com/VOICEVOX/e2k/nn.Embedding"
}

// Serialize serializes the Embedding.
func (e *Embedding) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(e.VocabSize),
		&anyvecsave.S{Vector: e.Weights.Vector},
	)
}
