package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

// NATSQueue publishes job messages to per-job subjects
// (<prefix>.<job>). Workers consume them through a queue group so a given
// message is delivered to one worker only.
type NATSQueue struct {
	conn          *nats.Conn
	subjectPrefix string
}

var _ ports.JobQueue = (*NATSQueue)(nil)

func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return conn, nil
}

func NewNATSQueue(conn *nats.Conn, subjectPrefix string) *NATSQueue {
	prefix := strings.TrimSpace(subjectPrefix)
	if prefix == "" {
		prefix = "bugtriage.jobs"
	}
	return &NATSQueue{
		conn:          conn,
		subjectPrefix: prefix,
	}
}

func (q *NATSQueue) Enqueue(ctx context.Context, job string, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(job) == "" {
		return errors.New("job name is required")
	}

	msg := Message{
		ID:         uuid.NewString(),
		Job:        job,
		ReportID:   reportID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errs.Wrap(err, "marshal job message")
	}

	if err := q.conn.Publish(q.subjectPrefix+"."+job, data); err != nil {
		return errs.Wrap(err, "publish job message")
	}
	return nil
}

// Runner consumes job subjects and dispatches to registered handlers.
type Runner struct {
	conn          *nats.Conn
	subjectPrefix string
	queueGroup    string
	handlers      Registry
	policy        RetryPolicy
}

func NewRunner(conn *nats.Conn, subjectPrefix string, queueGroup string, handlers Registry, policy RetryPolicy) *Runner {
	prefix := strings.TrimSpace(subjectPrefix)
	if prefix == "" {
		prefix = "bugtriage.jobs"
	}
	group := strings.TrimSpace(queueGroup)
	if group == "" {
		group = "bugtriage-workers"
	}
	return &Runner{
		conn:          conn,
		subjectPrefix: prefix,
		queueGroup:    group,
		handlers:      handlers,
		policy:        policy,
	}
}

// Run subscribes and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "queue.runner"))

	sub, err := r.conn.QueueSubscribe(r.subjectPrefix+".>", r.queueGroup, func(natsMsg *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(natsMsg.Data, &msg); err != nil {
			logging.Error(logCtx, "drop unparsable job message", slog.Any("err", errs.Loggable(err)))
			return
		}

		handler, ok := r.handlers[msg.Job]
		if !ok {
			logging.Warn(logCtx, "drop message for unknown job", slog.String("job", msg.Job))
			return
		}

		runWithRetry(logCtx, msg.Job, msg.ReportID, handler, r.policy)
	})
	if err != nil {
		return errs.Wrap(err, "subscribe job subjects")
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	logging.Info(logCtx, "worker consuming jobs",
		slog.String("subject", r.subjectPrefix+".>"),
		slog.String("queue_group", r.queueGroup),
	)

	<-ctx.Done()
	return nil
}
