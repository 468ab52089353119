// Package corpus loads the katakana dictionary and turns
// its entries into padded, masked index batches for
// training.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
)

// An Entry is one dictionary record: an English word and
// its acceptable katakana renderings.
// A word may have more than one rendering.
type Entry struct {
	Word string   `json:"word"`
	Kata []string `json:"kata"`
}

// ReadCorpus reads a line-delimited JSON corpus file.
// Malformed lines and entries without renderings are
// fatal: the corpus is expected to be machine-generated
// and complete.
func ReadCorpus(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("read corpus", err)
	}
	defer f.Close()

	var res []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("read corpus: line %d: %s", lineNum, err)
		}
		if entry.Word == "" {
			return nil, fmt.Errorf("read corpus: line %d: missing word", lineNum)
		}
		if len(entry.Kata) == 0 {
			return nil, fmt.Errorf("read corpus: line %d: no renderings for %q",
				lineNum, entry.Word)
		}
		res = append(res, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, essentials.AddCtx("read corpus", err)
	}
	return res, nil
}
