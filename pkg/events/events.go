package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher stands in for NATS when eventing is disabled; publishes
// succeed and go nowhere.
type NoopPublisher struct{}

func NewNoopPublisher() NoopPublisher { return NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }

// Event subjects
const (
	// Account events
	AccountRegistered    = "account.registered"
	AccountVerified      = "account.verified"
	AccountLocked        = "account.locked"
	AccountPasswordReset = "account.password_reset"

	// Job events
	JobCreated       = "job.created"
	JobStatusChanged = "job.status_changed"
	JobDeleted       = "job.deleted"

	// Task events
	TaskCompleted = "task.completed"
)

// Event payloads
type AccountRegisteredEvent struct {
	AccountID    int64     `json:"account_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type AccountVerifiedEvent struct {
	AccountID  int64     `json:"account_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type AccountLockedEvent struct {
	AccountID   int64     `json:"account_id"`
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

type AccountPasswordResetEvent struct {
	AccountID int64     `json:"account_id"`
	ResetAt   time.Time `json:"reset_at"`
}

type JobCreatedEvent struct {
	JobID     int64     `json:"job_id"`
	AccountID int64     `json:"account_id"`
	Position  string    `json:"position"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type JobStatusChangedEvent struct {
	JobID     int64     `json:"job_id"`
	AccountID int64     `json:"account_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}

type JobDeletedEvent struct {
	JobID     int64     `json:"job_id"`
	AccountID int64     `json:"account_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type TaskCompletedEvent struct {
	TaskID      int64     `json:"task_id"`
	AccountID   int64     `json:"account_id"`
	CompletedAt time.Time `json:"completed_at"`
}
