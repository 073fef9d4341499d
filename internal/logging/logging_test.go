package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Str("country", "Austria").Int("photos", 12).Msg("classified")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "classified", entry["message"])
	assert.Equal(t, "Austria", entry["country"])
	assert.EqualValues(t, 12, entry["photos"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("hidden")
	Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
	assert.Equal(t, zerolog.Disabled, parseLevel("disabled"))
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	l := With().Str("run_id", "r1").Logger()
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"run_id":"r1"`)
}

func TestCtxCarriesLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&global))
	t.Cleanup(func() { SetLogger(prev) })

	Ctx(context.Background()).Info().Msg("plain")
	assert.Contains(t, global.String(), "plain")

	ctx := ContextWithLogger(context.Background(), NewTestLogger(&scoped).With().Str("run_id", "r1").Logger())
	Ctx(ctx).Info().Msg("scoped")
	assert.Contains(t, scoped.String(), `"run_id":"r1"`)
	assert.NotContains(t, global.String(), "scoped")
}
