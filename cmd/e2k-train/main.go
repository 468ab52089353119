// Command e2k-train trains a transliteration model for
// one conversion direction and writes a checkpoint.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"

	"github.com/VOICEVOX/e2k"
	"github.com/VOICEVOX/e2k/corpus"
	"github.com/VOICEVOX/e2k/sgd"
	"github.com/VOICEVOX/e2k/train"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/rip"
)

func main() {
	var dataPath string
	var g2pPath string
	var outDir string
	var p2k bool
	var batchSize int
	var epochs int
	var dim int
	var seed int64
	flag.StringVar(&dataPath, "data", "vendor/data.jsonl", "katakana dictionary (JSONL)")
	flag.StringVar(&g2pPath, "g2p", "", "pronouncing dictionary for P2K (CMUdict format)")
	flag.StringVar(&outDir, "out", ".", "checkpoint output directory")
	flag.BoolVar(&p2k, "p2k", false, "train phoneme-to-katakana instead of character-to-katakana")
	flag.IntVar(&batchSize, "batch", train.DefaultBatchSize, "mini-batch size")
	flag.IntVar(&epochs, "epochs", train.DefaultEpochs, "number of epochs")
	flag.IntVar(&dim, "dim", e2k.DefaultDim, "model width")
	flag.Int64Var(&seed, "seed", train.DefaultSeed, "random seed")
	flag.Parse()

	name := "c2k"
	srcVocab := e2k.ASCIIEntries()
	var g2p corpus.G2P
	if p2k {
		name = "p2k"
		srcVocab = e2k.EnPhones()
		if g2pPath == "" {
			essentials.Die("P2K training requires -g2p")
		}
		var err error
		g2p, err = corpus.DictG2P(g2pPath)
		if err != nil {
			essentials.Die(err)
		}
	}
	log.Printf("Training %s", name)

	entries, err := corpus.ReadCorpus(dataPath)
	if err != nil {
		essentials.Die(err)
	}
	log.Printf("Loaded %d entries", len(entries))

	r := rand.New(rand.NewSource(seed))
	creator := anyvec32.CurrentCreator()
	model := e2k.NewModel(creator, srcVocab.Len(), e2k.Kanas().Len(), dim,
		e2k.DefaultHeads, r)
	dataset := corpus.NewDataset(entries, g2p, p2k, r)
	validation, training := sgd.HashSplit(corpus.NewList(dataset), 0.05)

	loop := &train.Loop{
		Model:      model,
		SrcVocab:   srcVocab,
		Training:   training.(*corpus.List),
		Validation: validation.(*corpus.List),
		BatchSize:  batchSize,
		Epochs:     epochs,
		Rand:       r,
		Stop:       rip.NewRIP().Chan(),
	}

	log.Println("Press ctrl+c once to stop...")
	completed, err := loop.Run()
	if err != nil {
		essentials.Die(err)
	}

	model.SetTraining(false)
	path := filepath.Join(outDir, fmt.Sprintf("model-%s-e%d.bin", name, completed))
	if err := e2k.SaveModel(path, model); err != nil {
		essentials.Die(err)
	}
	log.Printf("Saved checkpoint to %s", path)
}
