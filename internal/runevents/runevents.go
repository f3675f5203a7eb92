// Package runevents publishes one Kafka event per submission outcome.
package runevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid"
	OutcomeIOFailure      = "io_failure"
	OutcomeProcessFailure = "process_failure"
)

type Event struct {
	DraftID        string    `json:"draft_id,omitempty"`
	BaseName       string    `json:"base_name"`
	Format         string    `json:"format"`
	Dimensionality int       `json:"dimensionality"`
	Digest         string    `json:"digest,omitempty"`
	Outcome        string    `json:"outcome"`
	Message        string    `json:"message,omitempty"`
	TS             time.Time `json:"ts"`
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Publish(ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	log     *slog.Logger
	dropped atomic.Int64
	stopped chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("runevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, logger), nil
}

// NewWithProducer wraps an existing producer. The publisher owns it and
// closes it on Close.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		log:     logger,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Warn("runevents: marshal", "err", err)
				continue
			}
			msg := &sarama.ProducerMessage{
				Topic: p.topic,
				Value: sarama.ByteEncoder(b),
			}
			if ev.DraftID != "" {
				msg.Key = sarama.StringEncoder(ev.DraftID)
			}
			p.prod.Input() <- msg
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.log.Warn("runevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish enqueues ev; a full queue drops it.
func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
	}
}

func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("runevents: close producer: %w", err)
	}
	return nil
}
