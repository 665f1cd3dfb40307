package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConServicio(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Service: "pos-api", Output: &buf})

	l.Info().Msg("descartado")
	l.Warn().Int64("product_id", 7).Msg("stock bajo")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), "una sola línea JSON")
	assert.Equal(t, "pos-api", line["service"])
	assert.Equal(t, "stock bajo", line["message"])
	assert.EqualValues(t, 7, line["product_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
