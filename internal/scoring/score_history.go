package scoring

import (
	"sort"
)

// ScoreHistory holds the score data for a particular deck, including
// past entries and the current game's score.
type ScoreHistory struct {
	Entries        []ScoreHistoryEntry
	HighScoreEntry *ScoreHistoryEntry
	CurrentScore   *ScoreHistoryEntry
	Attempts       int
}

// ScoreHistoryEntry represents a single finished game on a given deck.
type ScoreHistoryEntry struct {
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Score     int    `json:"score"`
	Words     int    `json:"words"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
}

// GetHighScoreEntry returns the highest score entry from the loaded history.
func (sh ScoreHistory) GetHighScoreEntry() *ScoreHistoryEntry {
	return sh.HighScoreEntry
}

// GetNScoreEntries returns the top N entries, previous games and the current
// one together, sorted by score.
func (sh ScoreHistory) GetNScoreEntries(n int) []ScoreHistoryEntry {
	entriesCopy := make([]ScoreHistoryEntry, 0, len(sh.Entries)+1)
	for _, entry := range sh.Entries {
		if sh.CurrentScore != nil && entry.ID == sh.CurrentScore.ID {
			continue
		}
		entriesCopy = append(entriesCopy, entry)
	}
	if sh.CurrentScore != nil {
		entriesCopy = append(entriesCopy, *sh.CurrentScore)
	}

	sort.SliceStable(entriesCopy, func(i, j int) bool {
		return entriesCopy[i].Score > entriesCopy[j].Score
	})

	if len(entriesCopy) < n {
		return entriesCopy
	}
	return entriesCopy[:n]
}

// GotHighScore checks if the current score is greater than or equal to the
// previously recorded high score.
func (sh ScoreHistory) GotHighScore() bool {
	if sh.HighScoreEntry == nil || sh.CurrentScore == nil {
		// If there's no high score or no current score, it's vacuously a "high score".
		return true
	}
	return sh.CurrentScore.Score >= sh.HighScoreEntry.Score
}
