// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events publishes domain events (group created, member added,
message posted, like toggled) for downstream consumers.

Events are keyed by group id so every event for one group lands on the same
Kafka partition and keeps its relative order.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeGroupCreated  = "group.created"
	TypeGroupDeleted  = "group.deleted"
	TypeMemberAdded   = "group.member_added"
	TypeMemberRemoved = "group.member_removed"
	TypeAdminAdded    = "group.admin_added"
	TypeAdminRemoved  = "group.admin_removed"
	TypeMessagePosted = "message.posted"
	TypeLikeToggled   = "message.like_toggled"
)

// Event is the wire shape of one domain event.
type Event struct {
	Type       string         `json:"type"`
	GroupID    string         `json:"groupId"`
	ActorID    string         `json:"actorId,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Publisher is the sink for domain events.
type Publisher interface {
	Publish(context context.Context, event Event) error
	Close() error
}

// # Nop

// Nop discards every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// # Kafka

// KafkaConfig is the broker list and target topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes events synchronously to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a publisher; no connection is made until the
// first write.
func NewKafkaPublisher(config KafkaConfig) (*KafkaPublisher, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("events: no kafka brokers configured")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("events: empty kafka topic")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer}, nil
}

// Publish encodes the event as JSON and writes it keyed by group id.
func (publisher *KafkaPublisher) Publish(context context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := Encode(event)
	if err != nil {
		return err
	}

	return publisher.writer.WriteMessages(context, kafka.Message{
		Key:   []byte(event.GroupID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
}

// Close flushes pending writes and releases broker connections.
func (publisher *KafkaPublisher) Close() error {
	if publisher == nil || publisher.writer == nil {
		return nil
	}
	return publisher.writer.Close()
}

// Encode returns the JSON form written to the broker.
func Encode(event Event) ([]byte, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", event.Type, err)
	}
	return value, nil
}
