package deck

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-pinyin/internal/pinyin"
)

var ErrNoQuestions = errors.New("no questions")

// Question is one word of the quiz: its characters, the expected syllable
// for each character and the expected tone for each syllable.
type Question struct {
	Hanzi  []string
	Pinyin []string
	Tones  []pinyin.Tone
	Source string
}

// Len returns the number of characters in the word.
func (q Question) Len() int {
	return len(q.Hanzi)
}

// Word joins the characters back together.
func (q Question) Word() string {
	return strings.Join(q.Hanzi, "")
}

// Answer renders the expected reading with tone numbers, e.g. "xiong3 mao1".
func (q Question) Answer() string {
	parts := make([]string, len(q.Pinyin))
	for i, syl := range q.Pinyin {
		if q.Tones[i] == pinyin.Neutral {
			parts[i] = syl
			continue
		}
		parts[i] = fmt.Sprintf("%s%d", syl, q.Tones[i])
	}
	return strings.Join(parts, " ")
}

// Validate checks that the three slices line up and hold usable values.
func (q Question) Validate() error {
	if len(q.Hanzi) == 0 {
		return fmt.Errorf("question has no characters")
	}
	if len(q.Pinyin) != len(q.Hanzi) || len(q.Tones) != len(q.Hanzi) {
		return fmt.Errorf("question %q: %d characters, %d syllables, %d tones",
			q.Word(), len(q.Hanzi), len(q.Pinyin), len(q.Tones))
	}
	for i, syl := range q.Pinyin {
		parsed, err := pinyin.Parse(syl)
		if err != nil {
			return fmt.Errorf("question %q: syllable %d: %w", q.Word(), i, err)
		}
		if parsed.HasTone {
			return fmt.Errorf("question %q: syllable %d carries its own tone", q.Word(), i)
		}
		if !q.Tones[i].Valid() {
			return fmt.Errorf("question %q: invalid tone %d", q.Word(), q.Tones[i])
		}
	}
	return nil
}

// Fingerprint returns a stable text form of a question list, independent of
// order, used to key score history per deck.
func Fingerprint(questions []Question) string {
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = q.Word() + " " + q.Answer()
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
