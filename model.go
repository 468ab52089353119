package e2k

import (
	"math/rand"
	"os"

	"github.com/VOICEVOX/e2k/nn"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// Default model hyperparameters, matching the shipped
// checkpoints.
const (
	DefaultDim   = 256
	DefaultHeads = 4

	attentionDropProb = 0.1
)

func init() {
	var m Model
	serializer.RegisterTypedDeserializer(m.SerializerType(), DeserializeModel)
}

// A Model is the sequence-to-sequence transliteration
// network: a bidirectional GRU encoder over embedded
// source symbols and an autoregressive GRU decoder whose
// state attends over the encoder outputs.
//
// One Model serves one conversion direction.
// P2K and C2K use separate Models that never share
// parameters.
type Model struct {
	Dim int

	SrcEmbed  *nn.Embedding
	KanaEmbed *nn.Embedding

	EncFwd  *nn.GRU
	EncBack *nn.GRU
	EncOut  *nn.FC

	PreDec  *nn.GRU
	Attn    *nn.Attention
	PostDec *nn.GRU
	Out     *nn.FC
}

// NewModel creates a randomized Model mapping srcVocab
// source symbols to kanaVocab katakana symbols.
// If r is nil, the global random source is used.
func NewModel(c anyvec.Creator, srcVocab, kanaVocab, dim, heads int, r *rand.Rand) *Model {
	return &Model{
		Dim:       dim,
		SrcEmbed:  nn.NewEmbedding(c, srcVocab, dim, r),
		KanaEmbed: nn.NewEmbedding(c, kanaVocab, dim, r),
		EncFwd:    nn.NewGRU(c, dim, dim, r),
		EncBack:   nn.NewGRU(c, dim, dim, r),
		EncOut:    nn.NewFC(c, 2*dim, dim, r),
		PreDec:    nn.NewGRU(c, dim, dim, r),
		Attn:      nn.NewAttention(c, dim, heads, attentionDropProb, r),
		PostDec:   nn.NewGRU(c, 2*dim, dim, r),
		Out:       nn.NewFC(c, dim, kanaVocab, r),
	}
}

// DeserializeModel deserializes a Model.
func DeserializeModel(d []byte) (*Model, error) {
	var res Model
	err := serializer.DeserializeAny(d, &res.SrcEmbed, &res.KanaEmbed,
		&res.EncFwd, &res.EncBack, &res.EncOut, &res.PreDec, &res.Attn,
		&res.PostDec, &res.Out)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Model", err)
	}
	res.Dim = res.EncFwd.OutCount
	return &res, nil
}

// Creator returns the tensor backend the parameters live
// on.
func (m *Model) Creator() anyvec.Creator {
	return m.Out.Weights.Vector.Creator()
}

// SetTraining switches the model between training and
// evaluation behavior (attention dropout on or off).
func (m *Model) SetTraining(training bool) {
	m.Attn.Dropout.Enabled = training
}

// Apply runs the teacher-forced training forward pass
// over a padded batch.
//
// src and tgt are batch-major padded index sequences and
// srcMask marks the valid source positions; padded source
// positions are excluded from attention.
// The decoder consumes tgt[:, :-1] and the result holds
// one log-probability batch per decoder timestep, each
// packing len(src) vectors of katakana-vocabulary size,
// to be compared against tgt[:, 1:].
func (m *Model) Apply(src, tgt [][]int, srcMask [][]bool) []anydiff.Res {
	batch := len(src)
	if batch == 0 || len(tgt) != batch || len(srcMask) != batch {
		panic("mismatching batch sizes")
	}
	c := m.Creator()
	numSteps := len(tgt[0]) - 1

	encSteps := m.encodeBatch(src)

	decSteps := make([]anydiff.Res, numSteps)
	decState := m.PreDec.Start(batch)
	for t := 0; t < numSteps; t++ {
		emb := m.KanaEmbed.Embed(column(tgt, t))
		decState = m.PreDec.Step(decState, emb, batch)
		decSteps[t] = decState
	}

	// Attention runs per batch item so that each item's
	// decoder steps attend over that item's source only.
	attnItems := make([]anydiff.Res, batch)
	for b := 0; b < batch; b++ {
		enc := itemSequence(encSteps, b, m.Dim)
		dec := itemSequence(decSteps, b, m.Dim)
		bias := nn.MaskBias(c, srcMask[b])
		attnItems[b] = m.Attn.Apply(dec, enc, numSteps, len(encSteps), bias)
	}

	outs := make([]anydiff.Res, numSteps)
	postState := m.PostDec.Start(batch)
	for t := 0; t < numSteps; t++ {
		attnStep := stepBatch(attnItems, t, m.Dim)
		in := nn.ConcatBatch(decSteps[t], attnStep, batch)
		postState = m.PostDec.Step(postState, in, batch)
		logits := m.Out.Apply(postState, batch)
		outs[t] = nn.LogSoftmax.Apply(logits, batch)
	}
	return outs
}

// encodeBatch embeds and encodes a padded source batch,
// returning one output per source timestep, each packing
// len(src) vectors of Dim components.
func (m *Model) encodeBatch(src [][]int) []anydiff.Res {
	batch := len(src)
	srcLen := len(src[0])

	embedded := make([]anydiff.Res, srcLen)
	for t := 0; t < srcLen; t++ {
		embedded[t] = m.SrcEmbed.Embed(column(src, t))
	}

	fwd := make([]anydiff.Res, srcLen)
	state := m.EncFwd.Start(batch)
	for t := 0; t < srcLen; t++ {
		state = m.EncFwd.Step(state, embedded[t], batch)
		fwd[t] = state
	}

	back := make([]anydiff.Res, srcLen)
	state = m.EncBack.Start(batch)
	for t := srcLen - 1; t >= 0; t-- {
		state = m.EncBack.Step(state, embedded[t], batch)
		back[t] = state
	}

	res := make([]anydiff.Res, srcLen)
	for t := 0; t < srcLen; t++ {
		joined := nn.ConcatBatch(fwd[t], back[t], batch)
		res[t] = anydiff.Tanh(m.EncOut.Apply(joined, batch))
	}
	return res
}

// Parameters returns every learnable variable, in a fixed
// order.
func (m *Model) Parameters() []*anydiff.Var {
	return nn.AllParameters(m.SrcEmbed, m.KanaEmbed, m.EncFwd, m.EncBack,
		m.EncOut, m.PreDec, m.Attn, m.PostDec, m.Out)
}

// SerializerType returns the unique ID used to serialize
// a Model with the serializer package.
func (m *Model) SerializerType() string {
	return "github.com/VOICEVOX/e2k.Model"
}

// Serialize serializes the Model.
func (m *Model) Serialize() ([]byte, error) {
	return serializer.SerializeAny(m.SrcEmbed, m.KanaEmbed, m.EncFwd,
		m.EncBack, m.EncOut, m.PreDec, m.Attn, m.PostDec, m.Out)
}

// SaveModel writes a Model checkpoint to a file.
func SaveModel(path string, m *Model) error {
	data, err := serializer.SerializeAny(m)
	if err != nil {
		return essentials.AddCtx("save model", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return essentials.AddCtx("save model", err)
	}
	return nil
}

// LoadModel reads a Model checkpoint from a file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	var res *Model
	if err := serializer.DeserializeAny(data, &res); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	return res, nil
}

// column extracts one timestep of a batch-major padded
// index matrix.
func column(rows [][]int, t int) []int {
	res := make([]int, len(rows))
	for i, row := range rows {
		res[i] = row[t]
	}
	return res
}

// itemSequence gathers one batch item's vectors across
// timesteps into a single packed sequence.
func itemSequence(steps []anydiff.Res, b, dim int) anydiff.Res {
	parts := make([]anydiff.Res, len(steps))
	for t, step := range steps {
		parts[t] = anydiff.Slice(step, b*dim, (b+1)*dim)
	}
	return anydiff.Concat(parts...)
}

// stepBatch gathers one timestep's vector from each
// per-item sequence back into a packed batch.
func stepBatch(items []anydiff.Res, t, dim int) anydiff.Res {
	parts := make([]anydiff.Res, len(items))
	for b, item := range items {
		parts[b] = anydiff.Slice(item, t*dim, (t+1)*dim)
	}
	return anydiff.Concat(parts...)
}
