package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"bugtriage/internal/bootstrap/logging"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

type message struct {
	Kind     string `json:"kind"`
	ReportID uint64 `json:"report_id"`
	SentAt   string `json:"sent_at"`
}

// NATSNotifier hands notifications to the mail service over NATS. This core
// is content-agnostic; rendering and delivery happen elsewhere.
type NATSNotifier struct {
	conn          *nats.Conn
	subjectPrefix string
}

var _ ports.Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(conn *nats.Conn, subjectPrefix string) *NATSNotifier {
	prefix := strings.TrimSpace(subjectPrefix)
	if prefix == "" {
		prefix = "bugtriage.notify"
	}
	return &NATSNotifier{
		conn:          conn,
		subjectPrefix: prefix,
	}
}

func (n *NATSNotifier) Send(ctx context.Context, kind string, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(kind) == "" {
		return errors.New("notification kind is required")
	}

	data, err := json.Marshal(message{
		Kind:     kind,
		ReportID: reportID,
		SentAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return errs.Wrap(err, "marshal notification")
	}

	if err := n.conn.Publish(n.subjectPrefix+"."+kind, data); err != nil {
		return errs.Wrap(err, "publish notification")
	}
	return nil
}

// LogNotifier records notifications in the log only. Used with the inline
// queue driver when no broker is configured.
type LogNotifier struct{}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, kind string, reportID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logging.Info(ctx, "notification recorded",
		slog.String("component", "notify"),
		slog.String("kind", kind),
		slog.Uint64("report_id", reportID),
	)
	return nil
}
