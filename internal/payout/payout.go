// Package payout hands prepared vendor payout drafts to the cash subsystem.
// The payroll core never records the cash movement itself.
package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

// TypeOutflow marks a cash outflow draft.
const TypeOutflow = "sortie"

// Draft is a pre-filled cash movement awaiting confirmation downstream.
type Draft struct {
	Type       string    `json:"type"`
	VendorCard string    `json:"vendeur_card"`
	VendorName string    `json:"vendeur_name"`
	Amount     int64     `json:"montant"`
	Memo       string    `json:"motif"`
	DateStart  string    `json:"date_debut"`
	DateEnd    string    `json:"date_fin"`
	PreparedAt time.Time `json:"prepared_at"`
}

// Memo builds the payout label for a vendor and window.
func Memo(vendorName, start, end string) string {
	return fmt.Sprintf("Paie vendeur %s (%s → %s)", vendorName, start, end)
}

// Publisher delivers drafts.
type Publisher interface {
	Publish(ctx context.Context, d Draft) error
	io.Closer
}

// NopPublisher drops drafts. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Draft) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes drafts as JSON, keyed by vendor card so every draft
// of a vendor lands on the same partition.
type KafkaPublisher struct {
	writer kafkaMessageWriter
	closer io.Closer
}

// NewKafkaPublisher builds a publisher on a kafka-go writer.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{writer: w, closer: w}
}

// NewKafkaPublisherWith uses a caller supplied writer.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, d Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(d.VendorCard),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(d.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish draft: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.closer == nil {
		return nil
	}
	return k.closer.Close()
}
