// Package events implements the scan pipeline's event bus (spec §5):
// a structured-logging sink for the milestones other modules care
// about (signal persisted, paper position opened/closed, risk alert
// raised, accuracy pass complete), adapted from the teacher's
// events.Manager.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType enumerates the scan pipeline's milestones.
type EventType string

const (
	ScanStarted       EventType = "SCAN_STARTED"
	ScanCompleted     EventType = "SCAN_COMPLETED"
	ErrorOccurred     EventType = "ERROR_OCCURRED"
	SignalPersisted   EventType = "SIGNAL_PERSISTED"
	PositionOpened    EventType = "POSITION_OPENED"
	PositionClosed    EventType = "POSITION_CLOSED"
	RiskAlertRaised   EventType = "RISK_ALERT_RAISED"
	DrawdownHalted    EventType = "DRAWDOWN_HALTED"
	AccuracyEvaluated EventType = "ACCURACY_EVALUATED"
	DailySummary      EventType = "DAILY_SUMMARY"
)

// Event is one emitted occurrence. ID is a stable, collision-free
// identifier independent of the log line's position, since a single
// symbol fan-out can emit several events with the same Timestamp.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager emits events as structured log lines. There is no
// in-process subscriber model (spec §5 describes ordering guarantees,
// not a pub/sub contract); callers that need to react to an event do
// so inline at the call site.
type Manager struct {
	log zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log.With().Str("component", "events").Logger()}
}

// Emit logs an event. A nil data map is replaced with an empty one so
// every emitted event round-trips through JSON consistently.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	event := Event{ID: uuid.New().String(), Type: eventType, Timestamp: time.Now(), Data: data, Module: module}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_id", event.ID).
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("event emitted")
}

// EmitError emits an ErrorOccurred event carrying the error and any
// surrounding context.
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(ErrorOccurred, module, map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	})
}
