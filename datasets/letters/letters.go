// Package letters generates the Japanese/English letter and word samples used
// to exercise the classifier, encoder and sequence-to-sequence models.
//
// Letters are fed to models as 32 bit labels of their code points, and the
// expected answer is the 8 bit label of the language marker.
package letters

import (
	"fmt"
	"math/rand"

	"github.com/openfluke/seqnet/nn"
)

const (
	// RuneWidth is the vector width of an encoded letter
	RuneWidth = 32
	// MarkerWidth is the vector width of an encoded language marker
	MarkerWidth = 8
)

// Language identifies a letter set by its marker byte
type Language byte

const (
	Japanese Language = 'J'
	English  Language = 'E'
)

// Languages lists every supported language
var Languages = []Language{Japanese, English}

var alphabets = map[Language][]rune{
	Japanese: []rune("あいうえおかきくけこさしすせそ"),
	English:  []rune("abcdefghijklmno"),
}

func (l Language) String() string {
	switch l {
	case Japanese:
		return "japanese"
	case English:
		return "english"
	default:
		return fmt.Sprintf("language(%q)", byte(l))
	}
}

// Letters returns the letter set of l
func (l Language) Letters() []rune {
	a, ok := alphabets[l]
	if !ok {
		panic(fmt.Sprintf("letters: unknown %v", l))
	}
	return a
}

// Marker writes the label of l into dst, which must be MarkerWidth long
func (l Language) Marker(dst nn.Vector) nn.Vector {
	return nn.EncodeLabel(dst, uint64(l))
}

// DecodeMarker reads a marker label back. The result is only a known Language
// when a model answered correctly.
func DecodeMarker(v nn.Vector) Language {
	return Language(nn.DecodeLabel(v))
}

// RandomLanguage picks one of Languages uniformly
func RandomLanguage(rng *rand.Rand) Language {
	return Languages[rng.Intn(len(Languages))]
}

// Letter draws one letter of lang
func Letter(rng *rand.Rand, lang Language) rune {
	a := lang.Letters()
	return a[rng.Intn(len(a))]
}

// Word draws a word of lang with a length in [minLen, maxLen]
func Word(rng *rand.Rand, lang Language, minLen, maxLen int) []rune {
	if minLen < 1 || maxLen < minLen {
		panic(fmt.Sprintf("letters: invalid word length range [%d, %d]", minLen, maxLen))
	}
	word := make([]rune, minLen+rng.Intn(maxLen-minLen+1))
	for i := range word {
		word[i] = Letter(rng, lang)
	}
	return word
}

// EncodeRune writes the code point label of r into dst, which must be RuneWidth long
func EncodeRune(dst nn.Vector, r rune) nn.Vector {
	return nn.EncodeLabel(dst, uint64(uint32(r)))
}

// EncodeWord encodes every letter of word into a fresh vector
func EncodeWord(word []rune) []nn.Vector {
	out := make([]nn.Vector, len(word))
	for i, r := range word {
		out[i] = EncodeRune(nn.NewVector(RuneWidth), r)
	}
	return out
}
