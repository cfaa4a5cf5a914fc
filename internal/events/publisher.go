package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/easyquant/quantchat/internal/chat"
	"github.com/nats-io/nats.go"
)

const (
	// SubjectMessageStored announces each message appended to the log.
	SubjectMessageStored = "chat.message.stored"
	// SubjectConversationCleared announces a full conversation wipe.
	SubjectConversationCleared = "chat.conversation.cleared"
)

// StoredEvent is the payload for SubjectMessageStored. Content stays out of
// the event — consumers that need it read the store.
type StoredEvent struct {
	MessageID string    `json:"message_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ClearedEvent is the payload for SubjectConversationCleared.
type ClearedEvent struct {
	ClearedAt time.Time `json:"cleared_at"`
}

// Publisher emits conversation events over NATS. The service runs fine
// without one — callers hold it behind a nil-checked interface.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func Connect(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// MessageStored publishes a stored-message event. Publish failures are
// logged, never propagated — events are advisory, the log is the truth.
func (p *Publisher) MessageStored(msg chat.Message) {
	p.publish(SubjectMessageStored, StoredEvent{
		MessageID: msg.ID.String(),
		Role:      string(msg.Role),
		CreatedAt: msg.CreatedAt,
	})
}

// ConversationCleared publishes a conversation-cleared event.
func (p *Publisher) ConversationCleared() {
	p.publish(SubjectConversationCleared, ClearedEvent{ClearedAt: time.Now().UTC()})
}

func (p *Publisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("publish event", "subject", subject, "error", err)
	}
}

func (p *Publisher) Close() {
	p.conn.Close()
}
