package game

import (
	"testing"

	"go-pinyin/internal/deck"
	"go-pinyin/internal/pinyin"
	"go-pinyin/internal/scoring"
	"go-pinyin/internal/state"

	"github.com/charmbracelet/bubbles/textinput"
)

// MockStorage implements scoring.ScoreStorage for testing
type MockStorage struct {
	Entries    []scoring.ScoreHistoryEntry
	SaveCalled bool
}

func (m *MockStorage) LoadAll() ([]scoring.ScoreHistoryEntry, error) {
	return m.Entries, nil
}

func (m *MockStorage) SaveAll(entries []scoring.ScoreHistoryEntry) error {
	m.Entries = entries
	m.SaveCalled = true
	return nil
}

var (
	pandaQ = deck.Question{Hanzi: []string{"熊", "猫"}, Pinyin: []string{"xiong", "mao"}, Tones: []pinyin.Tone{3, 1}}
	qiangQ = deck.Question{Hanzi: []string{"强"}, Pinyin: []string{"qiang"}, Tones: []pinyin.Tone{2}}
	phoneQ = deck.Question{Hanzi: []string{"手", "机"}, Pinyin: []string{"shou", "ji"}, Tones: []pinyin.Tone{3, 1}}
	maQ    = deck.Question{Hanzi: []string{"吗"}, Pinyin: []string{"ma"}, Tones: []pinyin.Tone{pinyin.Neutral}}
)

func newTestGame(t *testing.T, store *MockStorage, opts state.GameOptions, questions ...deck.Question) *Game {
	t.Helper()
	sc, err := scoring.InitScoring("test deck", "Title", store)
	if err != nil {
		t.Fatalf("Failed to init scoring: %v", err)
	}
	g := NewGame(deck.NewDeck(questions, false, nil), textinput.New(), *sc, opts)
	g.Init()
	return g
}

func TestGame_Init(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{TimeLimit: 60}, pandaQ)

	if g.State.FSM.Current() != state.PhaseAwaitingInput {
		t.Errorf("Without a countdown the first question should be open, got %s", g.State.FSM.Current())
	}
	if g.State.TimeRemaining != 60 || !g.State.TimerEnabled {
		t.Errorf("Expected 60s timer, got %d (enabled %v)", g.State.TimeRemaining, g.State.TimerEnabled)
	}
}

func TestGame_InitWithCountdown(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{Countdown: 3}, pandaQ)

	if g.State.FSM.Current() != state.PhaseReady {
		t.Fatalf("Expected ready phase, got %s", g.State.FSM.Current())
	}

	// Input before the round starts is ignored.
	g.HandleSubmit("xiong")
	if g.State.FSM.Current() != state.PhaseReady {
		t.Errorf("Submit during countdown should be ignored, got %s", g.State.FSM.Current())
	}

	g.HandleTick()
	g.HandleTick()
	g.HandleTick()
	if g.State.FSM.Current() != state.PhaseAwaitingInput {
		t.Errorf("Round should start after 3 ticks, got %s", g.State.FSM.Current())
	}
}

// Typing "xiong" reveals tone selection; tone 3 moves to character 1.
func TestGame_SyllableRevealsToneSelection(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, pandaQ, qiangQ)

	g.HandleSubmit("xiong")
	if !g.State.IsAwaitingTone() {
		t.Fatalf("Expected tone selection, got %s", g.State.FSM.Current())
	}
	if g.State.CharIndex != 0 {
		t.Errorf("Index should be 0, got %d", g.State.CharIndex)
	}

	g.HandleTone(pinyin.Third)
	if g.State.CharIndex != 1 {
		t.Errorf("Index should be 1, got %d", g.State.CharIndex)
	}
	if g.State.IsOver() {
		t.Error("Round should not end")
	}
	if g.State.Question.Word() != "熊猫" {
		t.Errorf("Question should still be 熊猫, got %s", g.State.Question.Word())
	}
}

// Finishing the second character adds exactly 10 and loads a new question.
func TestGame_CompletingWordAddsTen(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, pandaQ, qiangQ)

	g.HandleSubmit("xiong")
	g.HandleTone(pinyin.Third)
	before := g.State.Score.CurrentScore

	g.HandleSubmit("mao")
	g.HandleTone(pinyin.First)

	if g.State.Score.CurrentScore-before != 10 {
		t.Errorf("Expected +10, got %+d", g.State.Score.CurrentScore-before)
	}
	if g.State.Question.Word() != "强" {
		t.Errorf("Expected next question 强, got %s", g.State.Question.Word())
	}
	if g.State.CharIndex != 0 {
		t.Errorf("Index should reset to 0, got %d", g.State.CharIndex)
	}
}

// "xiang" does not advance and leaves the score alone.
func TestGame_Mismatch(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, pandaQ)

	g.HandleSubmit("xiang")

	if g.State.CharIndex != 0 {
		t.Errorf("Index should stay 0, got %d", g.State.CharIndex)
	}
	if g.State.Score.CurrentScore != 0 {
		t.Errorf("Score should stay 0, got %d", g.State.Score.CurrentScore)
	}
	if g.State.IsAwaitingTone() {
		t.Error("Mismatch must not reveal tone selection")
	}
	if g.State.Effect.Kind != state.EffectShake {
		t.Errorf("Expected shake effect, got %v", g.State.Effect.Kind)
	}
}

// A neutral-tone syllable advances without a tone button.
func TestGame_NeutralTone(t *testing.T) {
	q := deck.Question{Hanzi: []string{"谢", "谢"}, Pinyin: []string{"xie", "xie"}, Tones: []pinyin.Tone{4, pinyin.Neutral}}
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, q, maQ)

	g.HandleSubmit("xie")
	g.HandleTone(pinyin.Fourth)
	g.HandleSubmit("xie")

	if g.State.IsAwaitingTone() {
		t.Fatal("Neutral syllable should not wait for a tone")
	}
	if g.State.Score.CurrentScore != 10 {
		t.Errorf("Expected 10, got %d", g.State.Score.CurrentScore)
	}

	g.HandleSubmit("ma")
	if !g.State.IsFinished() {
		t.Errorf("Deck should be exhausted, got %s", g.State.FSM.Current())
	}
}

// After the timer hits zero nothing moves and the score is completions x 10.
func TestGame_TimeExpiry(t *testing.T) {
	store := &MockStorage{}
	g := newTestGame(t, store, state.GameOptions{TimeLimit: 5}, qiangQ, pandaQ, phoneQ)

	g.HandleSubmit("qiang")
	g.HandleTone(pinyin.Second)
	g.HandleSubmit("xiong")

	for i := 0; i < 5; i++ {
		g.HandleTick()
	}
	if !g.State.IsExpired() {
		t.Fatalf("Expected expired, got %s", g.State.FSM.Current())
	}
	if !store.SaveCalled {
		t.Error("Score should be saved on expiry")
	}

	g.HandleTone(pinyin.Third)
	g.HandleSubmit("mao")
	g.HandleSkip()
	g.HandleTick()

	if g.State.CharIndex != 0 {
		t.Errorf("Index must not move after expiry, got %d", g.State.CharIndex)
	}
	if g.State.Score.CurrentScore != g.State.Score.CompletedCount*10 || g.State.Score.CurrentScore != 10 {
		t.Errorf("Expected score 10 (1 word), got %d", g.State.Score.CurrentScore)
	}
	if g.State.TimeRemaining != 0 {
		t.Errorf("Time should stay at 0, got %d", g.State.TimeRemaining)
	}
}

func TestGame_PerfectBonusScore(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{PerfectBonus: true, TimeLimit: 10}, qiangQ, pandaQ, phoneQ)

	g.HandleSubmit("qiang2")

	// One mistake on 熊猫 forfeits its bonus.
	g.HandleSubmit("xiang")
	g.HandleSubmit("xiong3")
	g.HandleSubmit("mao1")

	for i := 0; i < 10; i++ {
		g.HandleTick()
	}

	sc := g.State.Score
	want := sc.CompletedCount*10 + sc.PerfectCount*5
	if sc.CurrentScore != want || want != 25 {
		t.Errorf("Expected %d (=25), got %d", want, sc.CurrentScore)
	}
}

func TestGame_SkipIgnoredWhenOver(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, qiangQ)

	g.HandleSkip()
	if !g.State.IsFinished() {
		t.Fatalf("Skipping the only question should exhaust the deck, got %s", g.State.FSM.Current())
	}
	if g.State.Score.SkipCount != 1 {
		t.Errorf("Expected 1 skip, got %d", g.State.Score.SkipCount)
	}

	g.HandleSkip()
	if g.State.Score.SkipCount != 1 {
		t.Errorf("Skip after the end should be ignored, got %d", g.State.Score.SkipCount)
	}
}

func TestGame_EachQuestionOnce(t *testing.T) {
	questions := []deck.Question{pandaQ, qiangQ, phoneQ, maQ}
	sc, _ := scoring.InitScoring("test deck", "Title", &MockStorage{})
	g := NewGame(deck.NewDeck(questions, true, nil), textinput.New(), *sc, state.GameOptions{})
	g.Init()

	seen := map[string]int{}
	for !g.IsOver() {
		seen[g.State.Question.Word()]++
		g.HandleSkip()
	}

	if len(seen) != len(questions) {
		t.Errorf("Expected %d distinct questions, saw %v", len(questions), seen)
	}
	for word, n := range seen {
		if n != 1 {
			t.Errorf("%s presented %d times", word, n)
		}
	}
}

func TestGame_ClearEffect(t *testing.T) {
	g := newTestGame(t, &MockStorage{}, state.GameOptions{}, pandaQ, qiangQ)

	g.HandleSubmit("xiang")
	shakeSeq := g.State.Effect.Seq

	// The next transition replaces the shake before its clear arrives.
	g.HandleSubmit("xiong3")
	g.ClearEffect(shakeSeq)

	if g.State.Effect.Kind != state.EffectGlow {
		t.Errorf("Stale clear should not remove the newer glow, got %v", g.State.Effect.Kind)
	}

	g.ClearEffect(g.State.Effect.Seq)
	if g.State.Effect.Kind != state.EffectNone {
		t.Errorf("Expected no effect, got %v", g.State.Effect.Kind)
	}
}
