package game

import (
	"context"

	"go-pinyin/internal/deck"
	"go-pinyin/internal/pinyin"
	"go-pinyin/internal/scoring"
	"go-pinyin/internal/state"

	"github.com/charmbracelet/bubbles/textinput"
)

// Game encapsulates the core game logic, independent of the UI.
type Game struct {
	State *state.State
}

// NewGame initializes a new game instance.
func NewGame(d *deck.Deck, ti textinput.Model, scoring scoring.Scoring, opts state.GameOptions) *Game {
	return &Game{
		State: state.NewState(d, ti, scoring, opts),
	}
}

// Init moves the game to the pre-start countdown, or straight to the first
// question when there is no countdown.
func (g *Game) Init() {
	ctx := context.Background()
	_ = g.State.FSM.Event(ctx, "initGame")
	if g.State.Countdown <= 0 {
		_ = g.State.FSM.Event(ctx, "begin")
	}
}

// HandleTick processes a one-second timer tick.
func (g *Game) HandleTick() {
	if g.State.IsOver() {
		return
	}
	g.State.Tick(context.Background())
}

// HandleSubmit checks the typed syllable for the current character.
func (g *Game) HandleSubmit(text string) {
	if !g.State.IsActive() {
		return
	}
	_ = g.State.Submit(context.Background(), text)
}

// HandleTone answers the tone for the current character.
func (g *Game) HandleTone(t pinyin.Tone) {
	if !g.State.IsAwaitingTone() {
		return
	}
	_ = g.State.SelectTone(context.Background(), t)
}

// HandleSkip gives up on the current question.
func (g *Game) HandleSkip() {
	if !g.State.IsActive() {
		return
	}
	_ = g.State.Skip(context.Background())
}

// ClearEffect ends the feedback pulse numbered seq, if it is still current.
func (g *Game) ClearEffect(seq int) {
	g.State.ClearEffect(seq)
}

func (g *Game) IsOver() bool {
	return g.State.IsOver()
}
