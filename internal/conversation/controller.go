package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/easyquant/quantchat/internal/chat"
	"github.com/easyquant/quantchat/internal/deepseek"
)

// MessageStore is the durable append-only message log.
type MessageStore interface {
	InsertMessage(ctx context.Context, role chat.Role, content string) (chat.Message, error)
	SelectMessages(ctx context.Context) ([]chat.Message, error)
	DeleteAllMessages(ctx context.Context) error
}

// Completer produces one assistant reply for one user utterance.
type Completer interface {
	Complete(ctx context.Context, userText, platform string) (string, error)
}

// Publisher emits conversation events for downstream consumers. Optional.
type Publisher interface {
	MessageStored(msg chat.Message)
	ConversationCleared()
}

var (
	// ErrEmptyInput rejects empty or whitespace-only input before any write.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy rejects a Send while another pipeline run is in flight.
	ErrBusy = errors.New("a send is already in flight")
)

// FallbackReply is persisted in place of the model's answer when the gateway
// fails, so the log always contains a reply turn for every user turn.
const FallbackReply = "Connection failed — please check your API key and network, then try again."

// Config tunes the controller. Zero values fall back to the defaults below.
type Config struct {
	GapThreshold   time.Duration // session segmentation threshold
	TitleLen       int           // session title length in runes
	RequestTimeout time.Duration // upper bound on one gateway call
	RetryTransport bool          // retry once when the gateway fails with a transport error
}

const defaultRequestTimeout = 30 * time.Second

// Controller sequences the send pipeline: persist the user message, obtain a
// reply, persist it, and rebuild the session view from a fresh read of the
// full log. All collaborators are injected at construction.
type Controller struct {
	store  MessageStore
	llm    Completer
	events Publisher // may be nil
	rules  []Rule
	cfg    Config
	logger *slog.Logger

	// pipeline serializes sends and reloads; a second Send while held is
	// rejected rather than queued, matching the front end disabling input.
	pipeline sync.Mutex

	mu       sync.RWMutex
	sessions []chat.Session // newest first
}

func New(store MessageStore, llm Completer, events Publisher, cfg Config, logger *slog.Logger, rules ...Rule) *Controller {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Controller{
		store:  store,
		llm:    llm,
		events: events,
		rules:  rules,
		cfg:    cfg,
		logger: logger,
	}
}

// Send runs one full request/response cycle and returns the persisted reply.
//
// Empty or whitespace-only text is rejected with ErrEmptyInput before any
// write. A failed user-message write aborts the pipeline — the gateway is
// never called for a message that was not durably recorded. Gateway failures
// are absorbed into FallbackReply and never surface as errors.
func (c *Controller) Send(ctx context.Context, text, platform string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyInput
	}

	if !c.pipeline.TryLock() {
		return chat.Message{}, ErrBusy
	}
	defer c.pipeline.Unlock()

	userMsg, err := c.store.InsertMessage(ctx, chat.RoleUser, text)
	if err != nil {
		return chat.Message{}, fmt.Errorf("persist user message: %w", err)
	}
	c.publishStored(userMsg)

	reply := c.generateReply(ctx, text, platform)

	aiMsg, err := c.store.InsertMessage(ctx, chat.RoleAI, reply)
	if err != nil {
		// Optimistic: the reply was already produced, so keep going. The
		// view and the store reconcile on the next history reload.
		c.logger.Error("failed to persist reply", "error", err)
		aiMsg = chat.Message{Role: chat.RoleAI, Content: reply, CreatedAt: time.Now().UTC()}
	} else {
		c.publishStored(aiMsg)
	}

	c.rebuildView(ctx)
	return aiMsg, nil
}

// generateReply evaluates the canned-reply rules in order, then falls back to
// the gateway. All gateway failures collapse into FallbackReply.
func (c *Controller) generateReply(ctx context.Context, text, platform string) string {
	for _, r := range c.rules {
		if r.Match(text) {
			c.logger.Debug("canned reply matched", "rule", r.Name)
			return r.Reply
		}
	}

	reply, err := c.complete(ctx, text, platform)
	if err == nil {
		return reply
	}

	var transportErr *deepseek.TransportError
	if c.cfg.RetryTransport && errors.As(err, &transportErr) {
		c.logger.Warn("gateway transport failure, retrying once", "error", err)
		if reply, err = c.complete(ctx, text, platform); err == nil {
			return reply
		}
	}

	c.logger.Error("gateway failed, substituting fallback reply", "error", err)
	return FallbackReply
}

func (c *Controller) complete(ctx context.Context, text, platform string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return c.llm.Complete(reqCtx, text, platform)
}

// LoadHistory reads the full log, rebuilds the session view, and returns the
// flat ordered message list. Called once at startup and whenever the
// presentation layer wants to reconcile.
func (c *Controller) LoadHistory(ctx context.Context) ([]chat.Message, error) {
	c.pipeline.Lock()
	defer c.pipeline.Unlock()

	msgs, err := c.store.SelectMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	c.setView(msgs)
	return msgs, nil
}

// Clear deletes the whole conversation and empties the session view.
func (c *Controller) Clear(ctx context.Context) error {
	c.pipeline.Lock()
	defer c.pipeline.Unlock()

	if err := c.store.DeleteAllMessages(ctx); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	c.mu.Lock()
	c.sessions = nil
	c.mu.Unlock()

	if c.events != nil {
		c.events.ConversationCleared()
	}
	return nil
}

// Sessions returns the current session view, newest first.
func (c *Controller) Sessions() []chat.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]chat.Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Current returns the messages of the most recent session.
func (c *Controller) Current() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.sessions) == 0 {
		return nil
	}
	msgs := make([]chat.Message, len(c.sessions[0].Messages))
	copy(msgs, c.sessions[0].Messages)
	return msgs
}

// rebuildView re-reads the full log and swaps in a freshly segmented view.
// The segmenter always consumes a complete snapshot, never a delta, so
// readers never observe a mix of old and new grouping.
func (c *Controller) rebuildView(ctx context.Context) {
	msgs, err := c.store.SelectMessages(ctx)
	if err != nil {
		// Keep the previous view; the next reload reconciles.
		c.logger.Error("failed to re-read message log", "error", err)
		return
	}
	c.setView(msgs)
}

func (c *Controller) setView(msgs []chat.Message) {
	sessions := chat.Segment(msgs, chat.SegmentOptions{
		GapThreshold: c.cfg.GapThreshold,
		TitleLen:     c.cfg.TitleLen,
	})
	// Newest first for presentation.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}

	c.mu.Lock()
	c.sessions = sessions
	c.mu.Unlock()
}

func (c *Controller) publishStored(msg chat.Message) {
	if c.events != nil {
		c.events.MessageStored(msg)
	}
}
