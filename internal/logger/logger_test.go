package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "game.log")

	closer, err := Init("debug", path)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	log.Debug().Str("word", "熊猫").Msg("question loaded")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "question loaded") {
		t.Errorf("Log line missing, got %q", data)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %s", zerolog.GlobalLevel())
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	closer, err := Init("loud", "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer closer.Close()

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", zerolog.GlobalLevel())
	}
}

func TestInit_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Init("info", filepath.Join(blocker, "game.log")); err == nil {
		t.Error("Expected error when the log dir is a file")
	}
}
