package game

import (
	"errors"
	"testing"

	"go-pinyin/internal/deck"
	"go-pinyin/internal/pinyin"
	"go-pinyin/internal/scoring"
	"go-pinyin/internal/state"
)

func TestSession_Init(t *testing.T) {
	questions := []deck.Question{pandaQ, qiangQ}
	opts := state.GameOptions{TimeLimit: 60, Countdown: 3}

	sess, err := NewSession(questions, "easy", opts, &MockStorage{}, true)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if sess.CurrentGame == nil {
		t.Fatal("CurrentGame should be initialized")
	}
	if sess.GamesPlayed != 1 {
		t.Errorf("Expected 1 game, got %d", sess.GamesPlayed)
	}
	if sess.CurrentGame.State.FSM.Current() != state.PhaseReady {
		t.Errorf("Game should wait for the countdown, got %s", sess.CurrentGame.State.FSM.Current())
	}
	if sess.CurrentGame.State.Deck.Len() != 2 {
		t.Errorf("Deck should hold 2 questions, got %d", sess.CurrentGame.State.Deck.Len())
	}
}

func TestSession_NoQuestions(t *testing.T) {
	_, err := NewSession(nil, "empty", state.GameOptions{}, &MockStorage{}, false)
	if !errors.Is(err, deck.ErrNoQuestions) {
		t.Errorf("Expected ErrNoQuestions, got %v", err)
	}
}

func TestSession_RestartKeepsBest(t *testing.T) {
	store := scoring.NewMemoryStorage()
	sess, _ := NewSession([]deck.Question{qiangQ}, "easy", state.GameOptions{}, store, false)

	sess.CurrentGame.HandleSubmit("qiang")
	sess.CurrentGame.HandleTone(pinyin.Second)
	sess.Update()

	if !sess.IsFinished() {
		t.Fatal("Game should be finished after the only question")
	}
	if sess.BestScore != 10 {
		t.Errorf("Expected best 10, got %d", sess.BestScore)
	}

	if err := sess.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if sess.IsFinished() {
		t.Error("Restarted game should be open")
	}
	if sess.GamesPlayed != 2 {
		t.Errorf("Expected 2 games, got %d", sess.GamesPlayed)
	}
	if sess.CurrentGame.State.Score.CurrentScore != 0 {
		t.Errorf("New game should start at 0, got %d", sess.CurrentGame.State.Score.CurrentScore)
	}

	// History from the first game is visible to the second.
	if sess.CurrentGame.State.Score.GetAttempts() != 1 {
		t.Errorf("Expected 1 previous attempt, got %d", sess.CurrentGame.State.Score.GetAttempts())
	}

	// A worse second game does not lower the best.
	sess.CurrentGame.HandleSkip()
	sess.Update()
	if sess.BestScore != 10 {
		t.Errorf("Best should stay 10, got %d", sess.BestScore)
	}
}

func TestSession_UpdateRecordsOnce(t *testing.T) {
	sess, _ := NewSession([]deck.Question{qiangQ}, "easy", state.GameOptions{}, &MockStorage{}, false)

	sess.Update()
	if sess.BestScore != 0 {
		t.Error("Open game should not be recorded")
	}

	sess.CurrentGame.HandleSubmit("qiang2")
	sess.Update()
	sess.Update()

	if sess.BestScore != 10 {
		t.Errorf("Expected best 10, got %d", sess.BestScore)
	}
}
