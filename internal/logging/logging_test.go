package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Str("url", "https://example.com").Msg("fetching")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "fetching" {
		t.Errorf("Expected message 'fetching', got '%v'", entry["message"])
	}
	if entry["url"] != "https://example.com" {
		t.Errorf("Expected url field, got '%v'", entry["url"])
	}
}

func TestSetupWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	log.Warn().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn line, got %q", buf.String())
	}
}

func TestSetupWriterInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud", "console")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected fallback to info level, got %v", zerolog.GlobalLevel())
	}
}
