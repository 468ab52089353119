package train

import (
	"log"
	"math/rand"
	"strings"

	"github.com/VOICEVOX/e2k"
	"github.com/VOICEVOX/e2k/corpus"
	"github.com/VOICEVOX/e2k/sgd"
	"github.com/unixpickle/anyvec"
)

// Default training hyperparameters, matching the shipped
// checkpoints.
const (
	DefaultEpochs    = 10
	DefaultBatchSize = 64
	DefaultRate      = 1e-3
	DefaultDecay     = 0.8
	DefaultSeed      = 3407
)

// A Loop trains one Model for its direction.
type Loop struct {
	Model    *e2k.Model
	SrcVocab *e2k.Vocab

	Training   *corpus.List
	Validation *corpus.List

	BatchSize int
	Epochs    int

	// Rater decides the learning rate per epoch and
	// Transformer pre-conditions the gradients.
	// If nil, an exponentially decaying rate and Adam are
	// used.
	Rater       sgd.Rater
	Transformer sgd.Transformer

	// Rand drives shuffling and sample selection.
	// If nil, the global random source is used.
	Rand *rand.Rand

	// Stop, if non-nil, ends training early at the next
	// batch boundary when it is closed.
	Stop <-chan struct{}

	// EpochStatus, if non-nil, is called after each epoch
	// with the mean validation cost.
	EpochStatus func(epoch int, valCost float64)
}

// Run trains for the configured number of epochs and
// returns the number of completed epochs.
func (l *Loop) Run() (int, error) {
	trainer := &Trainer{Model: l.Model, Params: l.Model.Parameters()}
	rater := l.Rater
	if rater == nil {
		rater = &sgd.ExpRater{Initial: DefaultRate, Decay: DefaultDecay}
	}
	transformer := l.Transformer
	if transformer == nil {
		transformer = &sgd.Adam{}
	}
	batchSize := l.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}

	completed := 0
	for epoch := 1; epoch <= l.Epochs; epoch++ {
		l.Model.SetTraining(true)
		sgd.Shuffle(l.Rand, l.Training)
		rate := rater.Rate(float64(epoch - 1))

		for i := 0; i < l.Training.Len(); i += batchSize {
			if l.stopped() {
				log.Println("interrupted; stopping training")
				return completed, nil
			}
			j := i + batchSize
			if j > l.Training.Len() {
				j = l.Training.Len()
			}
			batch, err := trainer.Fetch(l.Training.Slice(i, j))
			if err != nil {
				return completed, err
			}
			grad := trainer.Gradient(batch)
			grad = transformer.Transform(grad)
			sgd.Step(grad, rate)
			log.Printf("epoch %d: samples %d-%d: cost=%f", epoch, i, j, trainer.LastCost)
		}

		valCost, err := l.Validate()
		if err != nil {
			return completed, err
		}
		l.logSample()
		log.Printf("epoch %d: validation cost=%f", epoch, valCost)
		if l.EpochStatus != nil {
			l.EpochStatus(epoch, valCost)
		}
		completed = epoch
	}
	return completed, nil
}

// Validate computes the mean validation cost without
// updating parameters.
func (l *Loop) Validate() (float64, error) {
	l.Model.SetTraining(false)
	defer l.Model.SetTraining(true)

	trainer := &Trainer{Model: l.Model}
	batchSize := l.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}

	var total float64
	var count int
	for i := 0; i < l.Validation.Len(); i += batchSize {
		j := i + batchSize
		if j > l.Validation.Len() {
			j = l.Validation.Len()
		}
		batch, err := trainer.Fetch(l.Validation.Slice(i, j))
		if err != nil {
			return 0, err
		}
		cost := trainer.TotalCost(batch.(*corpus.Batch))
		total += floatValue(anyvec.Sum(cost.Output()))
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

// logSample decodes one random validation example and
// logs the qualitative (source, predicted) pair.
func (l *Loop) logSample() {
	if l.Validation.Len() == 0 || l.SrcVocab == nil {
		return
	}
	l.Model.SetTraining(false)
	defer l.Model.SetTraining(true)

	idx := 0
	if l.Rand != nil {
		idx = l.Rand.Intn(l.Validation.Len())
	} else {
		idx = rand.Intn(l.Validation.Len())
	}
	sample, err := l.Validation.Sample(idx)
	if err != nil {
		log.Printf("sample decode failed: %s", err)
		return
	}
	pred := l.Model.Decode(sample.Source)
	log.Printf("sample: %s -> %s",
		strings.Join(l.SrcVocab.Decode(sample.Source), " "),
		strings.Join(e2k.Kanas().Decode(pred), " "))
}

func (l *Loop) stopped() bool {
	if l.Stop == nil {
		return false
	}
	select {
	case <-l.Stop:
		return true
	default:
		return false
	}
}
