package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
	done chan struct{}
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	if w.done != nil {
		close(w.done)
	}
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_Produce(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "helpdesk.tickets"}

	p.Produce(context.Background(), EventTicketCreated, "7", map[string]interface{}{"ticket_id": 7, "title": "VPN down"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "ticket.created", body["event"])
	assert.Equal(t, "VPN down", body["title"])
	assert.EqualValues(t, 7, body["ticket_id"])
	assert.Contains(t, body, "occurred_at")
}

func TestProducer_WriteErrorIsSwallowed(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}
	assert.NotPanics(t, func() {
		p.Produce(context.Background(), EventTicketUpdated, "1", nil)
	})
}

func TestProducer_DisabledWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, "helpdesk.tickets")
	assert.False(t, p.Enabled())
	assert.NotPanics(t, func() {
		p.Produce(context.Background(), EventTicketCreated, "1", nil)
		Publish(p, EventTicketCreated, "1", nil)
	})
	assert.NoError(t, p.Close())
}

func TestPublish_RunsInBackground(t *testing.T) {
	w := &fakeWriter{done: make(chan struct{})}
	p := &Producer{writer: w}

	Publish(p, EventSolutionRated, "3", map[string]interface{}{"likes": 1})

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.msgs, 1)
}
