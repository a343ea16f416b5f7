package state

import (
	"go-pinyin/internal/pinyin"
)

// EffectKind names the transient feedback a transition asks the view to show.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectShake
	EffectGlow
	EffectScoreUp
)

// Effect is the latest feedback pulse. Seq grows with every pulse so a view
// can tell a stale clear request from a current one.
type Effect struct {
	Kind EffectKind
	Seq  int
}

func (s *State) emit(kind EffectKind) {
	s.Effect = Effect{Kind: kind, Seq: s.Effect.Seq + 1}
}

// ClearEffect drops the current effect if it is still the one numbered seq.
func (s *State) ClearEffect(seq int) bool {
	if s.Effect.Seq != seq || s.Effect.Kind == EffectNone {
		return false
	}
	s.Effect.Kind = EffectNone
	return true
}

func (s *State) parseTyped(text string) (pinyin.Syllable, bool) {
	syl, err := pinyin.Parse(text)
	if err != nil {
		return pinyin.Syllable{}, false
	}
	return syl, true
}

func (s State) ExpectedSyllable() string {
	if s.CharIndex >= s.Question.Len() {
		return ""
	}
	return s.Question.Pinyin[s.CharIndex]
}

func (s State) ExpectedTone() pinyin.Tone {
	if s.CharIndex >= s.Question.Len() {
		return pinyin.Neutral
	}
	return s.Question.Tones[s.CharIndex]
}

func (s State) IsCorrectSyllable(typed string) bool {
	if s.CharIndex >= s.Question.Len() {
		return false
	}
	return pinyin.Equal(typed, s.ExpectedSyllable())
}

func (s State) IsCorrectTone(t pinyin.Tone) bool {
	return s.CharIndex < s.Question.Len() && t == s.ExpectedTone()
}

func (s State) IsLastChar() bool {
	return s.CharIndex == s.Question.Len()-1
}

func (s State) IsAwaitingTone() bool {
	return s.FSM.Current() == PhaseAwaitingTone
}

func (s State) IsExpired() bool {
	return s.FSM.Current() == PhaseExpired
}

func (s State) IsFinished() bool {
	return s.FSM.Current() == PhaseFinished
}

// IsOver reports whether the round has reached a terminal phase.
func (s State) IsOver() bool {
	return s.IsExpired() || s.IsFinished()
}

// IsActive reports whether a question is open for input.
func (s State) IsActive() bool {
	switch s.FSM.Current() {
	case PhaseAwaitingInput, PhaseAwaitingTone:
		return true
	}
	return false
}
