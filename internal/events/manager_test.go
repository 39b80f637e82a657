package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_LogsEventTypeAndModule(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.New(&buf))

	m.Emit(PositionOpened, "paper", map[string]interface{}{"symbol": "AAPL"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, string(PositionOpened), line["event_type"])
	assert.Equal(t, "paper", line["module"])
}

func TestEmit_NilDataDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.New(&buf))

	assert.NotPanics(t, func() {
		m.Emit(ScanStarted, "scheduler", nil)
	})
}

func TestEmitError_CarriesErrorMessage(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.New(&buf))

	m.EmitError("risk", errors.New("boom"), map[string]interface{}{"symbol": "MSFT"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, string(ErrorOccurred), line["event_type"])

	event := line["event"].(map[string]interface{})
	data := event["data"].(map[string]interface{})
	assert.Equal(t, "boom", data["error"])
}
