package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/api"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/internal/models"
)

// DefaultErrorTTL is how long the chat error slot holds a message.
const DefaultErrorTTL = 5 * time.Second

// WelcomeMessage opens every reset conversation.
const WelcomeMessage = "Hello! Welcome to our e-commerce store! 👋 I'm here to help you find the perfect products. What are you looking for today?"

var ErrEmptyMessage = errors.New("message is empty")

// ChatState is a snapshot of the conversation.
type ChatState struct {
	Messages     []models.ChatMessage
	SessionToken string
	Session      *models.ChatSession
	Loading      bool
	Typing       bool
	Err          string
	Suggestions  []models.Product
}

// ChatOption configures NewChatManager.
type ChatOption func(*ChatManager)

// WithErrorTTL overrides DefaultErrorTTL. Zero keeps errors until cleared.
func WithErrorTTL(d time.Duration) ChatOption {
	return func(m *ChatManager) { m.errorTTL = d }
}

// ChatManager keeps the assistant transcript and the server session token
// that ties successive messages into one conversation.
type ChatManager struct {
	client   *api.Client
	metrics  *metrics.AppMetrics
	logger   *zerolog.Logger
	errorTTL time.Duration

	mu        sync.Mutex
	state     ChatState
	errGen    uint64
	errTimer  *time.Timer
	listeners []func(ChatState)
	closed    bool
}

// NewChatManager creates an empty conversation.
func NewChatManager(client *api.Client, m *metrics.AppMetrics, logger *zerolog.Logger, opts ...ChatOption) *ChatManager {
	if m == nil {
		m = metrics.NewNoop()
	}
	cm := &ChatManager{
		client:   client,
		metrics:  m,
		logger:   logging.Component(logger, "chat"),
		errorTTL: DefaultErrorTTL,
	}
	for _, opt := range opts {
		opt(cm)
	}
	return cm
}

// OnChange registers fn to receive a snapshot after every state change.
func (m *ChatManager) OnChange(fn func(ChatState)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// SendMessage appends text to the transcript right away, then asks the
// assistant for a reply. Failures end up in the transcript and the error
// slot; only an empty message is reported to the caller.
func (m *ChatManager) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	m.mu.Lock()
	m.state.Messages = append(m.state.Messages, localMessage(models.MessageTypeUser, text))
	m.state.Loading = true
	m.state.Typing = true
	m.clearErrorLocked()
	token := m.state.SessionToken
	m.mu.Unlock()
	m.changed()

	resp, err := m.client.SendChatMessage(ctx, models.ChatRequest{Message: text, SessionToken: token})
	m.metrics.RecordOutcome(ctx, m.metrics.ChatMessagesSent, "send", err == nil)

	m.mu.Lock()
	if err != nil {
		msg := api.Message(err, "Failed to send message")
		m.logger.Warn().Err(err).Msg("chat message failed")
		m.setErrorLocked(msg)
		m.state.Messages = append(m.state.Messages, localMessage(models.MessageTypeBot, "Sorry, I encountered an error: "+msg))
	} else {
		if resp.SessionToken != "" && resp.SessionToken != token {
			m.state.SessionToken = resp.SessionToken
			m.state.Session = nil
		}
		m.state.Messages = append(m.state.Messages, resp.BotResponse)
		if md := resp.BotResponse.Metadata; md != nil && len(md.Products) > 0 {
			m.state.Suggestions = append([]models.Product(nil), md.Products...)
		}
	}
	m.state.Loading = false
	m.state.Typing = false
	m.mu.Unlock()
	m.changed()
	return nil
}

// ResetChat ends the server conversation and starts a fresh local one with
// the same session token. When the server call fails the local transcript is
// left as it was.
func (m *ChatManager) ResetChat(ctx context.Context) error {
	m.mu.Lock()
	token := m.state.SessionToken
	m.mu.Unlock()

	if token != "" {
		if _, err := m.client.ResetChat(ctx, token); err != nil {
			m.mu.Lock()
			m.setErrorLocked(api.Message(err, "Failed to reset chat"))
			m.mu.Unlock()
			m.changed()
			return err
		}
	}

	m.mu.Lock()
	m.clearErrorLocked()
	m.state = ChatState{
		SessionToken: m.state.SessionToken,
		Messages:     []models.ChatMessage{localMessage(models.MessageTypeBot, WelcomeMessage)},
	}
	m.mu.Unlock()
	m.changed()
	return nil
}

// LoadChatHistory replaces the transcript with the server's record of the
// conversation identified by token.
func (m *ChatManager) LoadChatHistory(ctx context.Context, token string) error {
	m.mu.Lock()
	m.state.Loading = true
	m.mu.Unlock()
	m.changed()

	resp, err := m.client.ChatHistory(ctx, token)

	m.mu.Lock()
	if err != nil {
		m.setErrorLocked(api.Message(err, "Failed to load chat history"))
	} else {
		m.state.Session = resp.Session
		m.state.SessionToken = token
		m.state.Messages = append([]models.ChatMessage(nil), resp.Messages...)
	}
	m.state.Loading = false
	m.mu.Unlock()
	m.changed()
	return err
}

// ListSessions returns the signed-in user's past conversations.
func (m *ChatManager) ListSessions(ctx context.Context, page, perPage int) (*models.ChatSessionsResponse, error) {
	return m.client.ChatSessions(ctx, page, perPage)
}

func (m *ChatManager) ClearError() {
	m.mu.Lock()
	m.clearErrorLocked()
	m.mu.Unlock()
	m.changed()
}

// State returns a snapshot; slices are copies.
func (m *ChatManager) State() ChatState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close stops pending timers and drops listeners.
func (m *ChatManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
	m.listeners = nil
}

func (m *ChatManager) snapshotLocked() ChatState {
	s := m.state
	s.Messages = append([]models.ChatMessage(nil), m.state.Messages...)
	s.Suggestions = append([]models.Product(nil), m.state.Suggestions...)
	return s
}

// setErrorLocked stores msg and schedules its removal. The timer only clears
// the slot if no other error was set or cleared in between.
func (m *ChatManager) setErrorLocked(msg string) {
	m.clearErrorLocked()
	m.state.Err = msg
	if m.errorTTL <= 0 || m.closed {
		return
	}
	gen := m.errGen
	m.errTimer = time.AfterFunc(m.errorTTL, func() {
		m.mu.Lock()
		if m.closed || m.errGen != gen {
			m.mu.Unlock()
			return
		}
		m.state.Err = ""
		m.errTimer = nil
		m.mu.Unlock()
		m.changed()
	})
}

func (m *ChatManager) clearErrorLocked() {
	m.errGen++
	m.state.Err = ""
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
}

func (m *ChatManager) changed() {
	m.mu.Lock()
	listeners := m.listeners
	snap := m.snapshotLocked()
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// localMessage builds a message authored on this side. ID is a temporary
// millisecond timestamp; LocalID is unique.
func localMessage(kind, content string) models.ChatMessage {
	now := time.Now()
	return models.ChatMessage{
		ID:          now.UnixMilli(),
		MessageType: kind,
		Content:     content,
		Timestamp:   now.UTC().Format(time.RFC3339),
		LocalID:     ulid.Make().String(),
	}
}
