package pinyin

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tone is one of the four Mandarin tones, or Neutral for toneless syllables.
type Tone int

const (
	Neutral Tone = iota
	First
	Second
	Third
	Fourth
)

var (
	ErrEmpty   = errors.New("empty syllable")
	ErrInvalid = errors.New("invalid syllable")
)

// Combining marks left behind by NFD decomposition of tone-marked vowels.
const (
	markMacron    = '\u0304' // ā
	markAcute     = '\u0301' // á
	markCaron     = '\u030C' // ǎ
	markGrave     = '\u0300' // à
	markDiaeresis = '\u0308' // ü
)

var toneLabels = map[Tone]string{
	Neutral: "轻声 / neutral",
	First:   "第1声 / 1st",
	Second:  "第2声 / 2nd",
	Third:   "第3声 / 3rd",
	Fourth:  "第4声 / 4th",
}

func (t Tone) Valid() bool {
	return t >= Neutral && t <= Fourth
}

func (t Tone) String() string {
	if label, ok := toneLabels[t]; ok {
		return label
	}
	return fmt.Sprintf("Tone(%d)", int(t))
}

// Syllable is the parsed form of a single typed or stored syllable.
type Syllable struct {
	Text    string // normalized letters only, ü written as v
	Tone    Tone
	HasTone bool // true when the input carried a tone mark or number
}

// Normalize folds s into the comparison form used for matching: lower case,
// no surrounding space, no tone marks, ü spelled v.
func Normalize(s string) string {
	text, _, _ := decompose(s)
	return text
}

// Parse reads one syllable written plainly (xiong), with a trailing tone
// number (xiong3, ma5) or with a tone diacritic (xiǒng).
// Tone numbers 0 and 5 both mean Neutral.
func Parse(s string) (Syllable, error) {
	text, tone, marked := decompose(s)

	if n := len(text); n > 0 && text[n-1] >= '0' && text[n-1] <= '9' {
		d := Tone(text[n-1] - '0')
		if d == 5 {
			d = Neutral
		}
		if !d.Valid() || marked {
			return Syllable{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		text, tone, marked = text[:n-1], d, true
	}

	if text == "" {
		return Syllable{}, ErrEmpty
	}
	for _, r := range text {
		if r < 'a' || r > 'z' {
			return Syllable{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}

	return Syllable{Text: text, Tone: tone, HasTone: marked}, nil
}

// Equal reports whether two syllables are spelled the same, ignoring case,
// tone marks and the different ways of writing ü.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func decompose(s string) (string, Tone, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "u:", "v")

	tone := Neutral
	marked := false
	out := make([]rune, 0, len(s))

	for _, r := range norm.NFD.String(s) {
		switch r {
		case markMacron:
			tone, marked = First, true
		case markAcute:
			tone, marked = Second, true
		case markCaron:
			tone, marked = Third, true
		case markGrave:
			tone, marked = Fourth, true
		case markDiaeresis:
			if n := len(out); n > 0 && out[n-1] == 'u' {
				out[n-1] = 'v'
			}
		default:
			out = append(out, r)
		}
	}

	// Whatever marks remain carry no tone information.
	stripped, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), string(out))
	if err != nil {
		stripped = string(out)
	}
	return stripped, tone, marked
}
