// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bookline/bookline/internal/logger"
	"github.com/bookline/bookline/internal/port/messagequeue"
)

const streamName = "BOOKLINE"

const (
	headerRequestID  = "X-Request-ID"
	headerRetryCount = "X-Retry-Count"
)

// maxRetries is the number of redeliveries before a message is parked on
// its dead-letter subject (<subject>.dlq).
const maxRetries = 3

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	// Ensure the stream exists with subjects matching our topic patterns.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"bookings.>", "availability.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish sends a message to the given subject. The request ID from ctx
// travels in a header so consumers can correlate log lines; messages
// published outside a request get a fresh one.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(headerRequestID, reqID)

	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject. Failed
// messages are retried up to maxRetries times, then moved to <subject>.dlq.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		msgCtx := context.Background()
		if reqID := msg.Headers().Get(headerRequestID); reqID != "" {
			msgCtx = logger.WithRequestID(msgCtx, reqID)
		}

		if err := handler(msgCtx, msg.Subject(), msg.Data()); err != nil {
			slog.Error("message handler failed", "subject", msg.Subject(), "error", err)
			q.retryOrPark(msgCtx, msg)
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

// retryOrPark republishes a failed message with an incremented retry count,
// or moves it to the dead-letter subject once retries are exhausted. The
// original is acked either way so the consumer does not redeliver it.
func (q *Queue) retryOrPark(ctx context.Context, msg jetstream.Msg) {
	retries := retryCount(msg.Headers())
	if retries >= maxRetries {
		dlq := &nats.Msg{Subject: msg.Subject() + ".dlq", Data: msg.Data(), Header: msg.Headers()}
		if _, err := q.js.PublishMsg(ctx, dlq); err != nil {
			slog.Error("nats dlq publish failed", "subject", dlq.Subject, "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		slog.Warn("message moved to dlq", "subject", msg.Subject(), "retries", retries)
	} else {
		retry := &nats.Msg{Subject: msg.Subject(), Data: msg.Data(), Header: msg.Headers()}
		if retry.Header == nil {
			retry.Header = nats.Header{}
		}
		retry.Header.Set(headerRetryCount, strconv.Itoa(retries+1))
		if _, err := q.js.PublishMsg(ctx, retry); err != nil {
			slog.Error("nats retry publish failed", "subject", msg.Subject(), "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
	}

	if ackErr := msg.Ack(); ackErr != nil {
		slog.Error("nats ack failed", "error", ackErr)
	}
}

func retryCount(hdrs nats.Header) int {
	n, err := strconv.Atoi(hdrs.Get(headerRetryCount))
	if err != nil {
		return 0
	}
	return n
}

// Drain flushes pending messages and closes the connection gracefully.
func (q *Queue) Drain() error {
	return q.nc.Drain()
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the NATS connection is currently up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
