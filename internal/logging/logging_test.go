package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-story-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(&buf, "PROD", "warn")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("storyId", "S1").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "shown", line["message"])
	require.Equal(t, "S1", line["storyId"])
}

func TestSetupUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(&buf, "DEV", "chatty")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
