package corpus

import (
	"bufio"
	"os"
	"strings"

	"github.com/unixpickle/essentials"
)

// A G2P converts an English word to a phoneme sequence.
// It is a black box to the rest of the system; the P2K
// pipeline only filters its output against the phoneme
// vocabulary.
type G2P func(word string) []string

// DictG2P loads a pronouncing dictionary in the CMUdict
// format: one "WORD PH PH PH" record per line, comments
// starting with ";;;".
// The returned G2P looks words up case-insensitively and
// returns nil for words that are not listed.
func DictG2P(path string) (G2P, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("load G2P dictionary", err)
	}
	defer f.Close()

	dict := map[string][]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		// Alternate pronunciations are suffixed like
		// "WORD(2)"; only the first one is kept.
		if idx := strings.IndexByte(word, '('); idx >= 0 {
			continue
		}
		if _, ok := dict[word]; !ok {
			dict[word] = fields[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, essentials.AddCtx("load G2P dictionary", err)
	}

	return func(word string) []string {
		return dict[strings.ToLower(word)]
	}, nil
}
