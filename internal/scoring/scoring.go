package scoring

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Scoring manages the game's scoring logic, including event handling,
// bonuses, and history management.
type Scoring struct {
	// public
	CurrentScore   int
	CompletedCount int
	PerfectCount   int
	MistakeCount   int
	SkipCount      int
	// private
	storage    ScoreStorage // The interface for loading/saving scores.
	history    ScoreHistory
	scoreTable map[string]int
	deckHash   string
}

// InitScoring creates and initializes a new Scoring object.
// deckText identifies the question list (see deck.Fingerprint); history is
// filtered to entries recorded for the same list.
func InitScoring(deckText string, title string, storage ScoreStorage) (*Scoring, error) {
	s := &Scoring{
		scoreTable: getScoreTable(),
		storage:    storage,
		deckHash:   calculateHash(deckText),
	}

	allEntries, err := s.storage.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("could not load score history: %w", err)
	}

	filteredEntries := []ScoreHistoryEntry{}
	for _, entry := range allEntries {
		if entry.Hash == s.deckHash {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	sort.Slice(filteredEntries, func(i, j int) bool {
		return filteredEntries[i].Score > filteredEntries[j].Score
	})

	s.history.Entries = filteredEntries
	s.history.Attempts = len(filteredEntries)
	if len(filteredEntries) > 0 {
		s.history.HighScoreEntry = &filteredEntries[0]
	}

	s.history.CurrentScore = &ScoreHistoryEntry{
		ID:        uuid.NewString(),
		Hash:      s.deckHash,
		Score:     0,
		Timestamp: time.Now().Format(time.RFC3339),
		Title:     title,
	}

	return s, nil
}

// ScoreEvent updates the score and counters for a game event.
func (s *Scoring) ScoreEvent(event string) {
	switch event {
	case "wordComplete":
		s.CompletedCount++
	case "perfectBonus":
		s.PerfectCount++
	case "wrongSyllable", "wrongTone":
		s.MistakeCount++
	case "skip":
		s.SkipCount++
	}
	s.CurrentScore += s.scoreTable[event]

	if s.history.CurrentScore != nil {
		s.history.CurrentScore.Score = s.CurrentScore
		s.history.CurrentScore.Words = s.CompletedCount
	}
}

// Points returns the value of an event in the score table.
func (s *Scoring) Points(event string) int {
	return s.scoreTable[event]
}

// SaveEntries records the score for the finished game.
// It reads all scores, updates the list, and writes it back using the storage interface.
func (s *Scoring) SaveEntries() error {
	if s.history.CurrentScore == nil {
		return nil
	}

	allEntries, err := s.storage.LoadAll()
	if err != nil {
		return fmt.Errorf("could not load scores for saving: %w", err)
	}

	updatedEntries := make([]ScoreHistoryEntry, 0, len(allEntries)+1)
	for _, entry := range allEntries {
		// Replace rather than duplicate if this game was saved before.
		if entry.ID != s.history.CurrentScore.ID {
			updatedEntries = append(updatedEntries, entry)
		}
	}
	updatedEntries = append(updatedEntries, *s.history.CurrentScore)

	return s.storage.SaveAll(updatedEntries)
}

// Accessor methods for score history, delegating to the history object.
func (s *Scoring) GetHighScore() *ScoreHistoryEntry {
	return s.history.GetHighScoreEntry()
}

func (s *Scoring) GetAttempts() int {
	return s.history.Attempts
}

func (s *Scoring) GotHighScore() bool {
	return s.history.GotHighScore()
}

func (s *Scoring) GetNScoreEntries(n int) []ScoreHistoryEntry {
	return s.history.GetNScoreEntries(n)
}

// CurrentEntry returns the history entry for the game in progress.
func (s *Scoring) CurrentEntry() *ScoreHistoryEntry {
	return s.history.CurrentScore
}

// calculateHash generates a SHA256 hash for the given text.
func calculateHash(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// getScoreTable returns the predefined values for different scoring events.
// Mistakes and skips are counted but cost nothing.
func getScoreTable() map[string]int {
	return map[string]int{
		"wordComplete":  10,
		"perfectBonus":  5,
		"wrongSyllable": 0,
		"wrongTone":     0,
		"skip":          0,
	}
}
