// Package audit carries certificate lifecycle events from the API to the worker.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/queue"
)

const (
	TypeIssued   = "certificate.issued"
	TypeVerified = "certificate.verified"
)

// Event is one thing that happened to a certificate.
type Event struct {
	ID     string    `json:"id,omitempty"`
	Type   string    `json:"type"`
	Code   string    `json:"code"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Encode packs an event into a queue message.
func Encode(evt Event) (queue.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return queue.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return queue.Message{Type: evt.Type, Body: body}, nil
}

// Decode unpacks a queue message. The message type wins over the body's.
func Decode(msg queue.Message) (Event, error) {
	var evt Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return Event{}, fmt.Errorf("failed to decode %q event: %w", msg.Type, err)
	}
	if msg.Type != "" {
		evt.Type = msg.Type
	}
	return evt, nil
}

// Publisher pushes events onto a queue.
type Publisher struct {
	q queue.Queue
}

// NewPublisher wraps q.
func NewPublisher(q queue.Queue) *Publisher {
	return &Publisher{q: q}
}

// Publish encodes and enqueues evt.
func (p *Publisher) Publish(ctx context.Context, evt Event) error {
	msg, err := Encode(evt)
	if err != nil {
		return err
	}
	return p.q.Publish(ctx, msg)
}
