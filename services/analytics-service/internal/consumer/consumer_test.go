package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/salonbook/salonbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type memInbox struct {
	seen map[string]bool
	err  error
}

func (m *memInbox) Seen(_ context.Context, eventID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.seen[eventID], nil
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

type sliceReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

type countingInvalidator struct {
	calls int
	fail  int // number of leading calls that fail
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	if c.calls <= c.fail {
		return errors.New("redis down")
	}
	return nil
}

func bookingMessage(eventID, body string) kafka.Message {
	return kafka.Message{
		Topic:   TopicAppointmentBooked,
		Value:   []byte(body),
		Headers: kafkax.MetaHeaders(kafkax.EventMeta{EventID: eventID, EventType: TopicAppointmentBooked}),
	}
}

func TestRunDedupesAndInvalidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &sliceReader{cancel: cancel, msgs: []kafka.Message{
		bookingMessage("e1", `{"appointment_id":1,"master_id":2,"status":"confirmed"}`),
		bookingMessage("e1", `{"appointment_id":1,"master_id":2,"status":"confirmed"}`),
		bookingMessage("e2", `not json`),
		bookingMessage("e3", `{"appointment_id":1,"status":"cancelled"}`),
	}}
	inv := &countingInvalidator{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	c := New(logger, reader, &memInbox{seen: map[string]bool{}}, InvalidateReports(inv, logger))

	c.Run(ctx)

	if inv.calls != 2 {
		t.Fatalf("expected 2 invalidations, got %d", inv.calls)
	}
	if !reader.closed {
		t.Fatal("expected reader to be closed")
	}
}

func TestProcessSkipsHandlerWhenInboxFails(t *testing.T) {
	inv := &countingInvalidator{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	c := New(logger, &sliceReader{}, &memInbox{err: errors.New("db down")}, InvalidateReports(inv, logger))

	c.process(context.Background(), bookingMessage("e1", `{"appointment_id":1}`))
	if inv.calls != 0 {
		t.Fatalf("expected no invalidation, got %d", inv.calls)
	}
}

func TestFailedInvalidationIsRetriedOnRedelivery(t *testing.T) {
	inv := &countingInvalidator{fail: 1}
	inbox := &memInbox{seen: map[string]bool{}}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	c := New(logger, &sliceReader{}, inbox, InvalidateReports(inv, logger))
	msg := bookingMessage("e1", `{"appointment_id":1,"status":"confirmed"}`)

	c.process(context.Background(), msg)
	if inbox.seen["e1"] {
		t.Fatal("expected failed event to stay out of the inbox")
	}

	c.process(context.Background(), msg)
	if inv.calls != 2 {
		t.Fatalf("expected invalidation to be retried, got %d calls", inv.calls)
	}
	if !inbox.seen["e1"] {
		t.Fatal("expected event to be recorded after success")
	}

	c.process(context.Background(), msg)
	if inv.calls != 2 {
		t.Fatalf("expected duplicate to be skipped, got %d calls", inv.calls)
	}
}
