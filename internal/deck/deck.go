package deck

import (
	"embed"
	"fmt"
	"math/rand"
	"path"
	"sort"
	"strings"
)

//go:embed decks/*.txt
var builtinFS embed.FS

// Deck is a question list permuted once and consumed front to back.
type Deck struct {
	questions []Question
	next      int
}

// NewDeck copies questions and, when shuffle is set, permutes the copy.
// A nil rng falls back to the package-level source.
func NewDeck(questions []Question, shuffle bool, rng *rand.Rand) *Deck {
	d := &Deck{questions: make([]Question, len(questions))}
	copy(d.questions, questions)

	if shuffle {
		swap := func(i, j int) {
			d.questions[i], d.questions[j] = d.questions[j], d.questions[i]
		}
		if rng != nil {
			rng.Shuffle(len(d.questions), swap)
		} else {
			rand.Shuffle(len(d.questions), swap)
		}
	}
	return d
}

// Next hands out the next question. The second value is false once every
// question has been presented.
func (d *Deck) Next() (Question, bool) {
	if d.next >= len(d.questions) {
		return Question{}, false
	}
	q := d.questions[d.next]
	d.next++
	return q, true
}

func (d *Deck) Remaining() int {
	return len(d.questions) - d.next
}

func (d *Deck) Len() int {
	return len(d.questions)
}

// Presented returns how many questions have been handed out so far.
func (d *Deck) Presented() int {
	return d.next
}

// Levels lists the names of the embedded decks.
func Levels() []string {
	entries, err := builtinFS.ReadDir("decks")
	if err != nil {
		return nil
	}
	var levels []string
	for _, e := range entries {
		levels = append(levels, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(levels)
	return levels
}

// BuiltinQuestions returns the embedded deck for a level such as "easy".
func BuiltinQuestions(level string) ([]Question, error) {
	f, err := builtinFS.Open(path.Join("decks", level+".txt"))
	if err != nil {
		return nil, fmt.Errorf("unknown level %q (available: %s)", level, strings.Join(Levels(), ", "))
	}
	defer f.Close()

	questions, err := parseText(f, "builtin:"+level)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("level %q: %w", level, ErrNoQuestions)
	}
	return questions, nil
}
