package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.log")

	log := Setup(Options{Level: "debug", Format: "json", File: path})
	cl := Component(log, "exam_session")
	cl.Info().Str("exam_id", "abc").Msg("Exam session started")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "exam_session", entry["component"])
	assert.Equal(t, "abc", entry["exam_id"])
	assert.Equal(t, "Exam session started", entry["message"])
}

func TestSetup_LevelFallback(t *testing.T) {
	Setup(Options{Level: "not-a-level", Format: "json"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Setup(Options{Level: "warn", Format: "json"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}
