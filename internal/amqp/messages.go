package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Action says what happened to a journal entry.
type Action string

const (
	ActionRecorded Action = "recorded"
	ActionReversed Action = "reversed"
)

// MovementEvent carries a committed journal change to downstream exporters.
// EventID lets consumers drop redeliveries.
type MovementEvent struct {
	EventID   uuid.UUID    `json:"event_id"`
	Action    Action       `json:"action"`
	Movement  MovementBody `json:"movement"`
	Timestamp time.Time    `json:"timestamp"`
}

// MovementBody is the wire form of a journal entry.
type MovementBody struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Account     string          `json:"account"`
}

func NewMovementEvent(action Action, m core.Movement) *MovementEvent {
	return &MovementEvent{
		EventID: uuid.New(),
		Action:  action,
		Movement: MovementBody{
			ID:          m.ID,
			Date:        m.Date.String(),
			Description: m.Description,
			Amount:      m.Amount,
			Kind:        string(m.Kind),
			Account:     string(m.Account),
		},
		Timestamp: time.Now(),
	}
}

// ToMovement converts the wire body back into a journal entry.
func (b MovementBody) ToMovement() (core.Movement, error) {
	date, err := core.ParseDate(b.Date)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse date: %w", err)
	}
	return core.Movement{
		ID:          b.ID,
		Date:        date,
		Description: b.Description,
		Amount:      b.Amount,
		Kind:        core.MovementKind(b.Kind),
		Account:     core.AccountKind(b.Account),
	}, nil
}

// ToJSON converts the event to JSON bytes
func (e *MovementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MovementEventFromJSON decodes and validates an event.
func MovementEventFromJSON(data []byte) (*MovementEvent, error) {
	var ev MovementEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.EventID == uuid.Nil {
		return nil, fmt.Errorf("missing event id")
	}
	switch ev.Action {
	case ActionRecorded, ActionReversed:
	default:
		return nil, fmt.Errorf("unknown action %q", ev.Action)
	}
	return &ev, nil
}
