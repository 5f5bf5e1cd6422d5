// Package nats carries batch lifecycle events: batch-created (api to worker,
// queue-grouped) and per-batch progress snapshots (worker to api, broadcast).
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/infrastructure/resilience"
)

type Queue struct {
	conn            *nats.Conn
	createdSubject  string
	progressSubject string
	executor        *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, createdSubject, progressSubject string) (*Queue, error) {
	return NewWithOptions(url, createdSubject, progressSubject, Options{})
}

func NewWithOptions(url, createdSubject, progressSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docsort"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:            conn,
		createdSubject:  createdSubject,
		progressSubject: progressSubject,
		executor:        options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishBatchCreated(ctx context.Context, batchID string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.createdSubject, []byte(batchID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish_created", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeBatchCreated consumes created batches in a worker queue group so
// only one worker picks up any given batch. Blocks until ctx is done.
func (q *Queue) SubscribeBatchCreated(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.createdSubject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, string(msg.Data)); err != nil {
			slog.Error("batch_handler_failed", "batch_id", string(msg.Data), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// PublishBatchProgress broadcasts the full snapshot on a per-batch subject.
// Fire-and-forget: a dropped snapshot is superseded by the next transition.
func (q *Queue) PublishBatchProgress(ctx context.Context, snapshot domain.BatchSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	subject := q.progressSubjectFor(snapshot.BatchID)

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish_progress", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeBatchProgress delivers snapshots for one batch until the returned
// cancel func runs. Malformed payloads are dropped, not surfaced.
func (q *Queue) SubscribeBatchProgress(_ context.Context, batchID string, handler func(domain.BatchSnapshot)) (func(), error) {
	sub, err := q.conn.Subscribe(q.progressSubjectFor(batchID), func(msg *nats.Msg) {
		var snapshot domain.BatchSnapshot
		if err := json.Unmarshal(msg.Data, &snapshot); err != nil {
			slog.Warn("drop_malformed_progress_event", "batch_id", batchID, "error", err)
			return
		}
		handler(snapshot)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe progress: %w", err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("unsubscribe_progress_failed", "batch_id", batchID, "error", err)
		}
	}, nil
}

func (q *Queue) progressSubjectFor(batchID string) string {
	return fmt.Sprintf("%s.%s", q.progressSubject, batchID)
}
