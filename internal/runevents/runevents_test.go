package runevents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mockConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	return cfg
}

func TestPublisher_SendsJSONEvent(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, mockConfig())
	prod.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev Event
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.Outcome != OutcomeOK || ev.Digest != "00000000deadbeef" || ev.Format != "avs" || ev.TS.IsZero() {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := NewWithProducer(prod, "gridform-runs", 4, quiet())
	p.Publish(Event{DraftID: "d1", BaseName: "run", Format: "avs", Dimensionality: 1, Digest: "00000000deadbeef", Outcome: OutcomeOK})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublisher_ProducerErrorsDoNotBlock(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, mockConfig())
	prod.ExpectInputAndFail(errors.New("broker down"))
	prod.ExpectInputAndSucceed()

	p := NewWithProducer(prod, "gridform-runs", 4, quiet())
	p.Publish(Event{Outcome: OutcomeInvalid, Message: "Please specify a file name."})
	p.Publish(Event{Outcome: OutcomeOK})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	p := &Publisher{events: make(chan Event, 1)}
	p.Publish(Event{Outcome: OutcomeOK})
	p.Publish(Event{Outcome: OutcomeOK})
	p.Publish(Event{Outcome: OutcomeOK})
	if got := p.Dropped(); got != 2 {
		t.Fatalf("dropped=%d want 2", got)
	}
}

func TestDiscard(t *testing.T) {
	var s Sink = Discard{}
	s.Publish(Event{Outcome: OutcomeOK})
}
