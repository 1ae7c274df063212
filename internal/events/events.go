// Package events announces successful changes made against the licensing
// service so other systems can follow rate-table and entitlement edits.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/util"
)

type Type string

const (
	RateTableCreated Type = "rate_table.created"
	RateTableDeleted Type = "rate_table.deleted"
	CustomerCreated  Type = "customer.created"
	LineItemUpserted Type = "line_item.upserted"
	LineItemDeleted  Type = "line_item.deleted"
)

// Event is the JSON envelope written to the change topic.
type Event struct {
	ID          string            `json:"id"` // ULID
	Type        Type              `json:"type"`
	Environment model.Environment `json:"environment"`
	OccurredAt  time.Time         `json:"occurredAt"`
	Payload     json.RawMessage   `json:"payload"`
}

// New stamps an event with a fresh ULID taken at now.
func New(t Type, env model.Environment, now time.Time, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		ID:          util.NewAt(now),
		Type:        t,
		Environment: env,
		OccurredAt:  now.UTC(),
		Payload:     b,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
