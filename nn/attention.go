package nn

import (
	"errors"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a Attention
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAttention)
}

// Attention is multi-head scaled dot-product attention
// over a single sequence pair.
//
// Each head projects the queries, keys, and values down
// to Dim/Heads components, attends, and projects its
// context back up to Dim components.
// The per-head output projections are summed, which is
// equivalent to concatenating the heads and applying one
// combined output matrix.
type Attention struct {
	Dim   int
	Heads int

	// Per-head projections.
	// Query, key, and value weights are (Dim/Heads)xDim;
	// output weights are Dimx(Dim/Heads).
	QueryWeights []*anydiff.Var
	KeyWeights   []*anydiff.Var
	ValueWeights []*anydiff.Var
	OutWeights   []*anydiff.Var

	// Dropout is applied to the attention weights.
	Dropout *Dropout
}

// DeserializeAttention deserializes an Attention.
func DeserializeAttention(d []byte) (*Attention, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Attention", err)
	}
	if len(slice) < 3 {
		return nil, errors.New("deserialize Attention: missing fields")
	}
	dim, ok1 := slice[0].(serializer.Int)
	heads, ok2 := slice[1].(serializer.Int)
	dropout, ok3 := slice[2].(*Dropout)
	if !ok1 || !ok2 || !ok3 || len(slice) != 3+4*int(heads) {
		return nil, errors.New("deserialize Attention: invalid fields")
	}
	res := &Attention{Dim: int(dim), Heads: int(heads), Dropout: dropout}
	for i := 0; i < int(heads); i++ {
		vecs := make([]*anydiff.Var, 4)
		for j := range vecs {
			s, ok := slice[3+i*4+j].(*anyvecsave.S)
			if !ok {
				return nil, errors.New("deserialize Attention: invalid fields")
			}
			vecs[j] = anydiff.NewVar(s.Vector)
		}
		res.QueryWeights = append(res.QueryWeights, vecs[0])
		res.KeyWeights = append(res.KeyWeights, vecs[1])
		res.ValueWeights = append(res.ValueWeights, vecs[2])
		res.OutWeights = append(res.OutWeights, vecs[3])
	}
	return res, nil
}

// NewAttention creates a randomized Attention.
// The head count must divide dim.
// If r is nil, the global random source is used.
func NewAttention(c anyvec.Creator, dim, heads int, dropProb float64, r *rand.Rand) *Attention {
	if dim%heads != 0 {
		panic("head count must divide dimension")
	}
	headDim := dim / heads
	res := &Attention{
		Dim:     dim,
		Heads:   heads,
		Dropout: &Dropout{KeepProb: 1 - dropProb},
	}
	for i := 0; i < heads; i++ {
		res.QueryWeights = append(res.QueryWeights, randomWeights(c, dim, headDim, r))
		res.KeyWeights = append(res.KeyWeights, randomWeights(c, dim, headDim, r))
		res.ValueWeights = append(res.ValueWeights, randomWeights(c, dim, headDim, r))
		res.OutWeights = append(res.OutWeights, randomWeights(c, headDim, dim, r))
	}
	return res
}

// Apply attends with rows query vectors over cols
// key/value vectors.
//
// The q argument packs rows vectors of Dim components and
// kv packs cols vectors of Dim components.
// If maskBias is non-nil, it must have cols components
// and is added to every row of attention scores before
// the softmax; excluded positions use a large negative
// bias.
// The result packs rows vectors of Dim components.
func (a *Attention) Apply(q, kv anydiff.Res, rows, cols int, maskBias anydiff.Res) anydiff.Res {
	if q.Output().Len() != rows*a.Dim {
		panic("bad query size")
	}
	if kv.Output().Len() != cols*a.Dim {
		panic("bad key/value size")
	}
	headDim := a.Dim / a.Heads
	scale := 1 / math.Sqrt(float64(headDim))
	return anydiff.Pool(q, func(q anydiff.Res) anydiff.Res {
		return anydiff.Pool(kv, func(kv anydiff.Res) anydiff.Res {
			qMat := &anydiff.Matrix{Data: q, Rows: rows, Cols: a.Dim}
			kvMat := &anydiff.Matrix{Data: kv, Rows: cols, Cols: a.Dim}
			var sum anydiff.Res
			for h := 0; h < a.Heads; h++ {
				proj := &anydiff.Matrix{Data: a.QueryWeights[h], Rows: headDim, Cols: a.Dim}
				qh := anydiff.MatMul(false, true, qMat, proj)
				proj = &anydiff.Matrix{Data: a.KeyWeights[h], Rows: headDim, Cols: a.Dim}
				kh := anydiff.MatMul(false, true, kvMat, proj)
				proj = &anydiff.Matrix{Data: a.ValueWeights[h], Rows: headDim, Cols: a.Dim}
				vh := anydiff.MatMul(false, true, kvMat, proj)

				scores := anydiff.Scale(anydiff.MatMul(false, true, qh, kh).Data,
					q.Output().Creator().MakeNumeric(scale))
				if maskBias != nil {
					scores = anydiff.AddRepeated(scores, maskBias)
				}
				weights := anydiff.Exp(anydiff.LogSoftmax(scores, cols))
				weights = a.Dropout.Apply(weights, rows)

				ctx := anydiff.MatMul(false, false,
					&anydiff.Matrix{Data: weights, Rows: rows, Cols: cols}, vh)
				outProj := &anydiff.Matrix{Data: a.OutWeights[h], Rows: a.Dim, Cols: headDim}
				out := anydiff.MatMul(false, true, ctx, outProj).Data
				if sum == nil {
					sum = out
				} else {
					sum = anydiff.Add(sum, out)
				}
			}
			return sum
		})
	})
}

// MaskBias builds an additive attention bias from a
// validity mask: 0 for valid positions and a large
// negative value for padding, so that padded keys get
// (effectively) zero attention weight.
func MaskBias(c anyvec.Creator, mask []bool) anydiff.Res {
	data := make([]float64, len(mask))
	for i, valid := range mask {
		if !valid {
			data[i] = -1e30
		}
	}
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(data)))
}

// Parameters returns the per-head projection matrices,
// head by head.
func (a *Attention) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for h := 0; h < a.Heads; h++ {
		res = append(res, a.QueryWeights[h], a.KeyWeights[h],
			a.ValueWeights[h], a.OutWeights[h])
	}
	return res
}

// SerializerType returns the unique ID used to serialize
// an Attention with the serializer package.
func (a *Attention) SerializerType() string {
	return "github.com/VOICEVOX/e2k/nn.Attention"
}

// Serialize serializes the Attention.
func (a *Attention) Serialize() ([]byte, error) {
	parts := []serializer.Serializer{
		serializer.Int(a.Dim),
		serializer.Int(a.Heads),
		a.Dropout,
	}
	for h := 0; h < a.Heads; h++ {
		parts = append(parts,
			&anyvecsave.S{Vector: a.QueryWeights[h].Vector},
			&anyvecsave.S{Vector: a.KeyWeights[h].Vector},
			&anyvecsave.S{Vector: a.ValueWeights[h].Vector},
			&anyvecsave.S{Vector: a.OutWeights[h].Vector})
	}
	return serializer.SerializeSlice(parts)
}

func randomWeights(c anyvec.Creator, in, out int, r *rand.Rand) *anydiff.Var {
	res := anydiff.NewVar(c.MakeVector(in * out))
	anyvec.Rand(res.Vector, anyvec.Normal, r)
	res.Vector.Scale(c.MakeNumeric(1 / math.Sqrt(float64(in))))
	return res
}
