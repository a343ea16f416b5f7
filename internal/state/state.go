package state

import (
	"context"

	"go-pinyin/internal/deck"
	"go-pinyin/internal/pinyin"
	"go-pinyin/internal/scoring"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"
)

type GameOptions struct {
	TimeLimit    int // seconds, 0 off
	Countdown    int // seconds before the round starts
	PerfectBonus bool
}

// Phases of a round. Expired and Finished are terminal.
const (
	PhaseStart            = "start"
	PhaseReady            = "ready"
	PhaseLoading          = "loadingQuestion"
	PhaseAwaitingInput    = "awaitingInput"
	PhaseCheckingSyllable = "checkingSyllable"
	PhaseAwaitingTone     = "awaitingTone"
	PhaseCheckingTone     = "checkingTone"
	PhaseShaking          = "shaking"
	PhaseAdvancing        = "advancing"
	PhaseExpired          = "expired"
	PhaseFinished         = "finished"
)

type State struct {
	Input           textinput.Model
	Deck            *deck.Deck
	Question        deck.Question
	CharIndex       int
	Solved          []bool
	QuestionMistake bool // any wrong syllable or tone on the current question
	Score           scoring.Scoring
	FSM             *fsm.FSM
	Effect          Effect
	LastSkipped     *deck.Question
	Countdown       int // pre-start seconds left
	TimerEnabled    bool
	TimeLimit       int // Total time in seconds
	TimeRemaining   int // Current time remaining in seconds
	Options         GameOptions

	typed     pinyin.Syllable // last submitted syllable
	typedOK   bool
	toneGuess pinyin.Tone
}

func NewState(
	d *deck.Deck,
	ti textinput.Model,
	scoring scoring.Scoring,
	opts GameOptions,
) *State {
	s := &State{
		Input:        ti,
		Deck:         d,
		Score:        scoring,
		Countdown:    opts.Countdown,
		TimerEnabled: opts.TimeLimit > 0,
		TimeLimit:    opts.TimeLimit,
		Options:      opts,
	}
	s.TimeRemaining = s.TimeLimit

	s.FSM = fsm.NewFSM(
		PhaseStart,
		getStateTransitions(),
		getStateCallbacks(s),
	)

	return s
}

func getStateTransitions() []fsm.EventDesc {
	return fsm.Events{
		{Name: "initGame", Src: []string{PhaseStart}, Dst: PhaseReady},
		{Name: "begin", Src: []string{PhaseReady}, Dst: PhaseLoading},

		// Question loading
		{Name: "loaded", Src: []string{PhaseLoading}, Dst: PhaseAwaitingInput},
		{Name: "exhausted", Src: []string{PhaseLoading}, Dst: PhaseFinished},

		// Syllable
		{Name: "submit", Src: []string{PhaseAwaitingInput}, Dst: PhaseCheckingSyllable},
		{Name: "match", Src: []string{PhaseCheckingSyllable}, Dst: PhaseAwaitingTone},
		{Name: "neutralMatch", Src: []string{PhaseCheckingSyllable}, Dst: PhaseAdvancing},

		// Tone
		{Name: "selectTone", Src: []string{PhaseAwaitingTone}, Dst: PhaseCheckingTone},
		{Name: "toneMatch", Src: []string{PhaseCheckingTone}, Dst: PhaseAdvancing},

		// Mistakes
		{Name: "mismatch", Src: []string{PhaseCheckingSyllable, PhaseCheckingTone}, Dst: PhaseShaking},
		{Name: "retry", Src: []string{PhaseShaking}, Dst: PhaseAwaitingInput},

		// Progress
		{Name: "nextChar", Src: []string{PhaseAdvancing}, Dst: PhaseAwaitingInput},
		{Name: "wordComplete", Src: []string{PhaseAdvancing}, Dst: PhaseLoading},
		{Name: "skip", Src: []string{PhaseAwaitingInput, PhaseAwaitingTone}, Dst: PhaseLoading},

		// Timer
		{Name: "expire", Src: []string{PhaseAwaitingInput, PhaseAwaitingTone}, Dst: PhaseExpired},
	}
}

func getStateCallbacks(s *State) map[string]fsm.Callback {
	return fsm.Callbacks{
		"enter_" + PhaseLoading: func(ctx context.Context, e *fsm.Event) {
			if e.Event == "skip" {
				skipped := s.Question
				s.LastSkipped = &skipped
				s.Score.ScoreEvent("skip")
				log.Debug().Str("word", skipped.Word()).Msg("question skipped")
			}

			q, ok := s.Deck.Next()
			if !ok {
				log.Debug().Int("score", s.Score.CurrentScore).Msg("deck exhausted")
				e.FSM.Event(ctx, "exhausted")
				return
			}

			s.Question = q
			s.CharIndex = 0
			s.Solved = make([]bool, q.Len())
			s.QuestionMistake = false
			s.Input.Reset()
			log.Debug().Str("word", q.Word()).Int("remaining", s.Deck.Remaining()).Msg("question loaded")
			e.FSM.Event(ctx, "loaded")
		},
		"enter_" + PhaseCheckingSyllable: func(ctx context.Context, e *fsm.Event) {
			if !s.typedOK || !s.IsCorrectSyllable(s.typed.Text) {
				e.FSM.Event(ctx, "mismatch")
				return
			}

			if s.ExpectedTone() == pinyin.Neutral {
				// A typed tone on a toneless syllable must itself be neutral.
				if s.typed.HasTone && s.typed.Tone != pinyin.Neutral {
					e.FSM.Event(ctx, "mismatch")
					return
				}
				e.FSM.Event(ctx, "neutralMatch")
				return
			}

			e.FSM.Event(ctx, "match")

			// xiong3 / xiǒng answer the tone in the same step.
			if s.typed.HasTone {
				e.FSM.Event(ctx, "selectTone", s.typed.Tone)
			}
		},
		"enter_" + PhaseCheckingTone: func(ctx context.Context, e *fsm.Event) {
			if len(e.Args) > 0 {
				s.toneGuess, _ = e.Args[0].(pinyin.Tone)
			}
			if s.IsCorrectTone(s.toneGuess) {
				e.FSM.Event(ctx, "toneMatch")
				return
			}
			e.FSM.Event(ctx, "mismatch")
		},
		"enter_" + PhaseShaking: func(ctx context.Context, e *fsm.Event) {
			s.QuestionMistake = true
			if e.Src == PhaseCheckingTone {
				s.Score.ScoreEvent("wrongTone")
			} else {
				s.Score.ScoreEvent("wrongSyllable")
			}
			log.Debug().Str("from", e.Src).Int("index", s.CharIndex).Msg("mismatch")

			s.Input.Reset()
			s.emit(EffectShake)
			e.FSM.Event(ctx, "retry")
		},
		"enter_" + PhaseAdvancing: func(ctx context.Context, e *fsm.Event) {
			s.Solved[s.CharIndex] = true
			s.Input.Reset()

			if !s.IsLastChar() {
				s.CharIndex++
				s.emit(EffectGlow)
				e.FSM.Event(ctx, "nextChar")
				return
			}

			s.Score.ScoreEvent("wordComplete")
			if s.Options.PerfectBonus && !s.QuestionMistake {
				s.Score.ScoreEvent("perfectBonus")
			}
			s.LastSkipped = nil
			s.emit(EffectScoreUp)
			log.Debug().Str("word", s.Question.Word()).Int("score", s.Score.CurrentScore).Msg("word complete")
			e.FSM.Event(ctx, "wordComplete")
		},
		"enter_" + PhaseExpired: func(ctx context.Context, e *fsm.Event) {
			log.Debug().Int("score", s.Score.CurrentScore).Msg("time expired")
			s.endGame()
		},
		"enter_" + PhaseFinished: func(ctx context.Context, e *fsm.Event) {
			s.endGame()
		},
	}
}

// Submit checks typed text against the current character.
func (s *State) Submit(ctx context.Context, text string) error {
	s.typed, s.typedOK = s.parseTyped(text)
	return s.FSM.Event(ctx, "submit")
}

// SelectTone answers the tone of the current character.
func (s *State) SelectTone(ctx context.Context, t pinyin.Tone) error {
	return s.FSM.Event(ctx, "selectTone", t)
}

// Skip abandons the current question without points.
func (s *State) Skip(ctx context.Context) error {
	return s.FSM.Event(ctx, "skip")
}

// Tick advances the clocks by one second: the pre-start countdown while
// ready, the round timer while a question is open.
func (s *State) Tick(ctx context.Context) {
	switch s.FSM.Current() {
	case PhaseReady:
		s.Countdown--
		if s.Countdown <= 0 {
			s.Countdown = 0
			s.FSM.Event(ctx, "begin")
		}
	case PhaseAwaitingInput, PhaseAwaitingTone:
		if !s.TimerEnabled {
			return
		}
		s.TimeRemaining--
		if s.TimeRemaining <= 0 {
			s.TimeRemaining = 0
			s.FSM.Event(ctx, "expire")
		}
	}
}

func (s *State) endGame() {
	s.Input.Blur()
	if err := s.Score.SaveEntries(); err != nil {
		log.Error().Err(err).Msg("failed to save score")
	}
}
