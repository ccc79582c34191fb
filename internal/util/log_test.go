package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevelParsing(t *testing.T) {
	log := NewLogger("warn")
	if log.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
}

func TestNewLoggerBadLevelFallsBack(t *testing.T) {
	log := NewLogger("nonsense")
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", log.GetLevel())
	}
}

func TestNewFileLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log, closeFn := NewFileLogger("info", path)
	log.Info().Str("sym", "SOLUSDTM").Msg("hello")
	if err := closeFn(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "SOLUSDTM") {
		t.Fatalf("expected log file to contain entry, got %q", data)
	}
}
