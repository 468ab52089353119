package nn

import (
	"errors"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/serializer"
)

func init() {
	var g GRUGate
	serializer.RegisterTypedDeserializer(g.SerializerType(), DeserializeGRUGate)
	var gru GRU
	serializer.RegisterTypedDeserializer(gru.SerializerType(), DeserializeGRU)
}

// GRU is a gated recurrent unit.
//
// Unlike a framework RNN module, a GRU here is a plain
// parameter container whose Step method is a pure
// function from (state, input) to the next state.
// Callers own the state and thread it through time.
//
// The state update is
//
//	r := sigmoid(Wr*in + Ur*h + br)
//	z := sigmoid(Wz*in + Uz*h + bz)
//	n := tanh(Wn*in + r*(Un*h) + bn)
//	h' := (1-z)*n + z*h
type GRU struct {
	InCount  int
	OutCount int

	Reset      *GRUGate
	Update     *GRUGate
	Cand       *GRUGate
	StartState *anydiff.Var
}

// DeserializeGRU deserializes a GRU.
func DeserializeGRU(d []byte) (*GRU, error) {
	var reset, update, cand *GRUGate
	var start *anyvecsave.S
	if err := serializer.DeserializeAny(d, &reset, &update, &cand, &start); err != nil {
		return nil, err
	}
	if reset.Biases.Vector.Len() != start.Vector.Len() {
		return nil, errors.New("deserialize GRU: incorrect start state size")
	}
	return &GRU{
		InCount:    reset.InputWeights.Vector.Len() / start.Vector.Len(),
		OutCount:   start.Vector.Len(),
		Reset:      reset,
		Update:     update,
		Cand:       cand,
		StartState: anydiff.NewVar(start.Vector),
	}, nil
}

// NewGRU creates a new, randomized GRU.
// If r is nil, the global random source is used.
func NewGRU(c anyvec.Creator, in, out int, r *rand.Rand) *GRU {
	return &GRU{
		InCount:    in,
		OutCount:   out,
		Reset:      NewGRUGate(c, in, out, r),
		Update:     NewGRUGate(c, in, out, r),
		Cand:       NewGRUGate(c, in, out, r),
		StartState: anydiff.NewVar(c.MakeVector(out)),
	}
}

// Start produces the start state for a batch of n
// sequences, with the learned start state repeated n
// times.
func (g *GRU) Start(n int) anydiff.Res {
	c := g.StartState.Vector.Creator()
	zero := anydiff.NewConst(c.MakeVector(n * g.OutCount))
	return anydiff.AddRepeated(zero, g.StartState)
}

// Step advances a batch of n states by one timestep.
// The state vector has n*OutCount components and the
// input vector has n*InCount components.
func (g *GRU) Step(state, in anydiff.Res, n int) anydiff.Res {
	if state.Output().Len() != n*g.OutCount {
		panic("bad state size")
	}
	if in.Output().Len() != n*g.InCount {
		panic("bad input size")
	}
	return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
		return anydiff.Pool(in, func(in anydiff.Res) anydiff.Res {
			r := anydiff.Sigmoid(g.Reset.Affine(state, in, g.InCount, g.OutCount))
			z := anydiff.Sigmoid(g.Update.Affine(state, in, g.InCount, g.OutCount))
			stateTerm := applyWeights(g.OutCount, g.OutCount, g.Cand.StateWeights, state)
			inTerm := applyWeights(g.InCount, g.OutCount, g.Cand.InputWeights, in)
			cand := anydiff.Tanh(anydiff.AddRepeated(
				anydiff.Add(inTerm, anydiff.Mul(r, stateTerm)),
				g.Cand.Biases,
			))
			return anydiff.Add(
				anydiff.Mul(anydiff.Complement(z), cand),
				anydiff.Mul(z, state),
			)
		})
	})
}

// Parameters returns the GRU's parameters, gate by gate,
// with the start state last.
func (g *GRU) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, gate := range []*GRUGate{g.Reset, g.Update, g.Cand} {
		res = append(res, gate.Parameters()...)
	}
	return append(res, g.StartState)
}

// SerializerType returns the unique ID used to serialize
// a GRU with the serializer package.
func (g *GRU) SerializerType() string {
	return "github.com/VOICEVOX/e2k/nn.GRU"
}

// Serialize serializes the GRU.
func (g *GRU) Serialize() ([]byte, error) {
	return serializer.SerializeAny(g.Reset, g.Update, g.Cand,
		&anyvecsave.S{Vector: g.StartState.Vector})
}

// A GRUGate holds the input transformation, state
// transformation, and bias for one GRU gate.
type GRUGate struct {
	InputWeights *anydiff.Var
	StateWeights *anydiff.Var
	Biases       *anydiff.Var
}

// DeserializeGRUGate deserializes a GRUGate.
func DeserializeGRUGate(d []byte) (*GRUGate, error) {
	var iw, sw, b *anyvecsave.S
	if err := serializer.DeserializeAny(d, &iw, &sw, &b); err != nil {
		return nil, err
	}
	return &GRUGate{
		InputWeights: anydiff.NewVar(iw.Vector),
		StateWeights: anydiff.NewVar(sw.Vector),
		Biases:       anydiff.NewVar(b.Vector),
	}, nil
}

// NewGRUGate creates a randomized gate.
func NewGRUGate(c anyvec.Creator, in, out int, r *rand.Rand) *GRUGate {
	res := &GRUGate{
		InputWeights: anydiff.NewVar(c.MakeVector(in * out)),
		StateWeights: anydiff.NewVar(c.MakeVector(out * out)),
		Biases:       anydiff.NewVar(c.MakeVector(out)),
	}
	anyvec.Rand(res.InputWeights.Vector, anyvec.Normal, r)
	anyvec.Rand(res.StateWeights.Vector, anyvec.Normal, r)
	res.InputWeights.Vector.Scale(c.MakeNumeric(1 / math.Sqrt(float64(in))))
	res.StateWeights.Vector.Scale(c.MakeNumeric(1 / math.Sqrt(float64(out))))
	return res
}

// Affine computes Wi*in + Ws*state + b for a batch.
func (g *GRUGate) Affine(state, in anydiff.Res, inCount, outCount int) anydiff.Res {
	wState := applyWeights(outCount, outCount, g.StateWeights, state)
	wInput := applyWeights(inCount, outCount, g.InputWeights, in)
	return anydiff.AddRepeated(anydiff.Add(wState, wInput), g.Biases)
}

// Parameters returns the gate's parameters.
func (g *GRUGate) Parameters() []*anydiff.Var {
	return []*anydiff.Var{g.InputWeights, g.StateWeights, g.Biases}
}

// SerializerType returns the unique ID used to serialize
// a GRUGate with the serializer package.
func (g *GRUGate) SerializerType() string {
	return "github.com/VOICEVOX/e2k/nn.GRUGate"
}

// Serialize serializes the gate.
func (g *GRUGate) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		&anyvecsave.S{Vector: g.InputWeights.Vector},
		&anyvecsave.S{Vector: g.StateWeights.Vector},
		&anyvecsave.S{Vector: g.Biases.Vector},
	)
}

func applyWeights(in, out int, weights anydiff.Res, batch anydiff.Res) anydiff.Res {
	weightMat := &anydiff.Matrix{Data: weights, Rows: out, Cols: in}
	inMat := &anydiff.Matrix{Data: batch, Rows: batch.Output().Len() / in, Cols: in}
	return anydiff.MatMul(false, true, inMat, weightMat).Data
}
