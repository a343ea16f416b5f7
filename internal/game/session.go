package game

import (
	"fmt"
	"math/rand"
	"time"

	"go-pinyin/internal/deck"
	"go-pinyin/internal/scoring"
	"go-pinyin/internal/state"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/rs/zerolog/log"
)

// Session spans every game played in one run of the program: the question
// list stays loaded and each restart deals a freshly shuffled deck.
type Session struct {
	Questions    []deck.Question
	Title        string
	CurrentGame  *Game
	GameOptions  state.GameOptions
	ScoreStorage scoring.ScoreStorage
	Shuffle      bool

	// Aggregate State
	GamesPlayed int
	BestScore   int

	deckText string
	rng      *rand.Rand
	recorded bool
}

func NewSession(questions []deck.Question, title string, opts state.GameOptions, storage scoring.ScoreStorage, shuffle bool) (*Session, error) {
	if len(questions) == 0 {
		return nil, deck.ErrNoQuestions
	}

	s := &Session{
		Questions:    questions,
		Title:        title,
		GameOptions:  opts,
		ScoreStorage: storage,
		Shuffle:      shuffle,
		deckText:     deck.Fingerprint(questions),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.NextGame(); err != nil {
		return nil, err
	}

	return s, nil
}

// NextGame deals a new deck and starts a new game on it.
func (s *Session) NextGame() error {
	sc, err := scoring.InitScoring(s.deckText, s.Title, s.ScoreStorage)
	if err != nil {
		return fmt.Errorf("failed to init scoring: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "pinyin"
	ti.Prompt = "> "
	ti.CharLimit = 12
	ti.Width = 14
	ti.Focus()

	d := deck.NewDeck(s.Questions, s.Shuffle, s.rng)
	g := NewGame(d, ti, *sc, s.GameOptions)
	g.Init()

	s.CurrentGame = g
	s.GamesPlayed++
	s.recorded = false

	log.Info().Str("title", s.Title).Int("questions", d.Len()).Int("game", s.GamesPlayed).Msg("game started")
	return nil
}

// Restart abandons or closes the current game and starts another.
func (s *Session) Restart() error {
	s.Update()
	return s.NextGame()
}

// Update folds a finished game into the session totals. It is safe to call
// after every event.
func (s *Session) Update() {
	if s.CurrentGame == nil || s.recorded || !s.CurrentGame.IsOver() {
		return
	}

	score := s.CurrentGame.State.Score.CurrentScore
	if score > s.BestScore {
		s.BestScore = score
	}
	s.recorded = true

	log.Info().
		Int("score", score).
		Int("words", s.CurrentGame.State.Score.CompletedCount).
		Bool("expired", s.CurrentGame.State.IsExpired()).
		Msg("game over")
}

func (s *Session) IsFinished() bool {
	return s.CurrentGame != nil && s.CurrentGame.IsOver()
}
