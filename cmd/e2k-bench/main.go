// Command e2k-bench reports single-example inference
// latency for trained P2K and C2K checkpoints.
package main

import (
	"flag"
	"log"

	"github.com/VOICEVOX/e2k"
	"github.com/VOICEVOX/e2k/bench"
	"github.com/VOICEVOX/e2k/corpus"
	"github.com/unixpickle/essentials"
)

func main() {
	var dataPath string
	var g2pPath string
	var p2kPath string
	var c2kPath string
	var samples int
	var iters int
	flag.StringVar(&dataPath, "data", "vendor/data.jsonl", "katakana dictionary (JSONL)")
	flag.StringVar(&g2pPath, "g2p", "", "pronouncing dictionary (CMUdict format)")
	flag.StringVar(&p2kPath, "p2k-model", "", "P2K checkpoint")
	flag.StringVar(&c2kPath, "c2k-model", "", "C2K checkpoint")
	flag.IntVar(&samples, "samples", 1000, "number of corpus entries to prepare")
	flag.IntVar(&iters, "iters", 200, "number of timed inferences per direction")
	flag.Parse()

	if p2kPath == "" && c2kPath == "" {
		essentials.Die("need at least one of -p2k-model, -c2k-model")
	}

	entries, err := corpus.ReadCorpus(dataPath)
	if err != nil {
		essentials.Die(err)
	}
	if len(entries) > samples {
		entries = entries[:samples]
	}

	if c2kPath != "" {
		model, err := e2k.LoadModel(c2kPath)
		if err != nil {
			essentials.Die(err)
		}
		report("C2K", model, corpus.NewDataset(entries, nil, false, nil), iters)
	}
	if p2kPath != "" {
		if g2pPath == "" {
			essentials.Die("P2K benchmarking requires -g2p")
		}
		g2p, err := corpus.DictG2P(g2pPath)
		if err != nil {
			essentials.Die(err)
		}
		model, err := e2k.LoadModel(p2kPath)
		if err != nil {
			essentials.Die(err)
		}
		report("P2K", model, corpus.NewDataset(entries, g2p, true, nil), iters)
	}
}

func report(name string, model *e2k.Model, dataset *corpus.Dataset, iters int) {
	model.SetTraining(false)
	sources := make([][]int, dataset.Len())
	for i := range sources {
		sample, err := dataset.At(i)
		if err != nil {
			essentials.Die(err)
		}
		sources[i] = sample.Source
	}

	var i int
	w := bench.Measure(func() {
		model.Decode(sources[i%len(sources)])
		i++
	}, iters)
	log.Printf("%s: mean %f ms, std %f ms", name, w.Mean()*1000, w.Std()*1000)
}
