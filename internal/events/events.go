// Package events publishes domain events about accounts and teams
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	UserRegistered = "user.registered"
	UserVerified   = "user.verified"
	UserDeleted    = "user.deleted"
	CommandCreated = "command.created"
	CommandDeleted = "command.deleted"
)

type Event struct {
	Type    string         `json:"type"`
	Subject int64          `json:"subject"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit publishes e and only logs a failure. Events are a side channel and
// must never fail the request that produced them.
func Emit(ctx context.Context, p Publisher, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	if err := p.Publish(ctx, e); err != nil {
		zap.L().Warn("Failed to publish event", zap.String("type", e.Type), zap.Int64("subject", e.Subject), zap.Error(err))
	}
}

type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event, %w", e.Type, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// encode keys messages by subject so events about one entity stay ordered
func encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event, %w", e.Type, err)
	}

	return kafka.Message{
		Key:     []byte(strconv.FormatInt(e.Subject, 10)),
		Value:   value,
		Time:    e.At,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}, nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the types of the recorded events in publish order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}

	return out
}
