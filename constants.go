package e2k

import "strings"

var (
	kanaVocab  *Vocab
	phoneVocab *Vocab
	asciiVocab *Vocab
)

func init() {
	kanaVocab = NewVocab(strings.Split(kanaSymbols, " "))
	phoneVocab = NewVocab(enPhoneSymbols())
	asciiVocab = NewVocab(strings.Split(asciiSymbols, ""))
}

// Kanas returns the katakana output vocabulary.
func Kanas() *Vocab {
	return kanaVocab
}

// EnPhones returns the English phoneme vocabulary.
// Phonemes are ARPABET symbols; vowels carry their stress
// digit (e.g. "AH0"), which is kept as part of the symbol.
func EnPhones() *Vocab {
	return phoneVocab
}

// ASCIIEntries returns the ASCII source vocabulary used
// by the C2K direction.
func ASCIIEntries() *Vocab {
	return asciiVocab
}

const kanaSymbols = "ア イ ウ エ オ カ キ ク ケ コ ガ ギ グ ゲ ゴ サ シ ス セ ソ " +
	"ザ ジ ズ ゼ ゾ タ チ ツ テ ト ダ ヂ ヅ デ ド ナ ニ ヌ ネ ノ " +
	"ハ ヒ フ ヘ ホ バ ビ ブ ベ ボ パ ピ プ ペ ポ マ ミ ム メ モ " +
	"ヤ ユ ヨ ラ リ ル レ ロ ワ ヲ ン ヴ " +
	"ァ ィ ゥ ェ ォ ャ ュ ョ ッ ー"

const asciiSymbols = "abcdefghijklmnopqrstuvwxyz'-."

// ARPABET consonants have no stress marker; vowels come
// in three stress variants, matching the output of the
// grapheme-to-phoneme converter.
var arpabetConsonants = []string{
	"B", "CH", "D", "DH", "F", "G", "HH", "JH", "K", "L", "M", "N",
	"NG", "P", "R", "S", "SH", "T", "TH", "V", "W", "Y", "Z", "ZH",
}

var arpabetVowels = []string{
	"AA", "AE", "AH", "AO", "AW", "AY", "EH", "ER", "EY", "IH",
	"IY", "OW", "OY", "UH", "UW",
}

func enPhoneSymbols() []string {
	var res []string
	for _, v := range arpabetVowels {
		for _, stress := range []string{"0", "1", "2"} {
			res = append(res, v+stress)
		}
	}
	res = append(res, arpabetConsonants...)
	return res
}
