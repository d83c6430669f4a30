package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SigNoz/storefront-client/internal/api/apitest"
	"github.com/SigNoz/storefront-client/internal/models"
)

func TestSendMessageAdoptsSessionToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	ctx := context.Background()

	if err := chat.SendMessage(ctx, "  show me laptops "); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got := f.srv.LastChatRequest(); got.SessionToken != "" || got.Message != "show me laptops" {
		t.Fatalf("first request = %+v", got)
	}

	st := chat.State()
	if st.SessionToken == "" {
		t.Fatal("session token not adopted")
	}
	if len(st.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(st.Messages))
	}
	user, bot := st.Messages[0], st.Messages[1]
	if user.MessageType != models.MessageTypeUser || user.LocalID == "" || user.ID == 0 {
		t.Errorf("optimistic message = %+v", user)
	}
	if bot.MessageType != models.MessageTypeBot || bot.LocalID != "" {
		t.Errorf("bot message = %+v", bot)
	}
	if len(st.Suggestions) != 1 || st.Suggestions[0].ID != apitest.ProductLaptop {
		t.Errorf("suggestions = %+v", st.Suggestions)
	}
	if st.Loading || st.Typing || st.Err != "" {
		t.Errorf("flags after success: %+v", st)
	}

	token := st.SessionToken
	_ = chat.SendMessage(ctx, "anything else?")
	if got := f.srv.LastChatRequest().SessionToken; got != token {
		t.Errorf("second request token = %q, want %q", got, token)
	}
	if got := f.rec.Int64Sum(t, "chat_messages_sent_total"); got != 2 {
		t.Errorf("chat_messages_sent_total = %d", got)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	f := newFixture(t)
	chat := f.chat(t)

	if err := chat.SendMessage(context.Background(), " \t\n"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if n := len(chat.State().Messages); n != 0 {
		t.Fatalf("messages = %d", n)
	}
	if hits := f.srv.Hits("/chat/message"); hits != 0 {
		t.Fatalf("request sent for empty message")
	}
}

func TestSuggestionsReplacedOnlyByProducts(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	ctx := context.Background()

	_ = chat.SendMessage(ctx, "laptops please")
	_ = chat.SendMessage(ctx, "zzzz qqqq")
	st := chat.State()
	if md := st.Messages[len(st.Messages)-1].Metadata; md == nil || len(md.Products) != 0 {
		t.Fatalf("expected a reply without products, got %+v", md)
	}
	if len(st.Suggestions) != 1 || st.Suggestions[0].ID != apitest.ProductLaptop {
		t.Fatalf("suggestions after empty reply = %+v", st.Suggestions)
	}

	_ = chat.SendMessage(ctx, "headphones")
	st = chat.State()
	if len(st.Suggestions) != 1 || st.Suggestions[0].ID != apitest.ProductHeadphones {
		t.Fatalf("suggestions not replaced: %+v", st.Suggestions)
	}
}

func TestSendMessageFailure(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	ctx := context.Background()

	f.srv.Fail("/chat/message", http.StatusInternalServerError, "assistant is down")
	if err := chat.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage returned %v", err)
	}
	st := chat.State()
	if len(st.Messages) != 2 {
		t.Fatalf("messages = %+v", st.Messages)
	}
	if st.Messages[0].Content != "hello" {
		t.Errorf("user message lost: %+v", st.Messages[0])
	}
	if got := st.Messages[1]; got.MessageType != models.MessageTypeBot || got.Content != "Sorry, I encountered an error: assistant is down" {
		t.Errorf("error bubble = %+v", got)
	}
	if st.Err != "assistant is down" || st.Loading || st.Typing {
		t.Errorf("state = %+v", st)
	}

	f.srv.Fail("/chat/message", http.StatusBadGateway, "")
	_ = chat.SendMessage(ctx, "again")
	st = chat.State()
	if st.Err != "Failed to send message" {
		t.Errorf("fallback Err = %q", st.Err)
	}
	if got := st.Messages[len(st.Messages)-1].Content; got != "Sorry, I encountered an error: Failed to send message" {
		t.Errorf("fallback bubble = %q", got)
	}
}

func TestChatUnauthorizedInvalidatesSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	events, stop := f.session.Subscribe()
	defer stop()

	f.srv.RevokeTokens()
	_ = chat.SendMessage(context.Background(), "laptops")

	if f.session.IsAuthenticated() {
		t.Fatal("session survived a 401")
	}
	got := drain(events)
	if len(got) != 1 || got[0].Type != EventInvalidated {
		t.Fatalf("events = %+v", got)
	}
	st := chat.State()
	if st.Messages[len(st.Messages)-1].Content != "Sorry, I encountered an error: Token has been revoked" {
		t.Errorf("bubble = %q", st.Messages[len(st.Messages)-1].Content)
	}
}

func TestResetChatKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	ctx := context.Background()

	_ = chat.SendMessage(ctx, "laptops")
	token := chat.State().SessionToken

	if err := chat.ResetChat(ctx); err != nil {
		t.Fatalf("ResetChat: %v", err)
	}
	st := chat.State()
	if st.SessionToken != token {
		t.Fatalf("token after reset = %q, want %q", st.SessionToken, token)
	}
	if len(st.Messages) != 1 || st.Messages[0].Content != WelcomeMessage || st.Messages[0].MessageType != models.MessageTypeBot {
		t.Fatalf("messages after reset = %+v", st.Messages)
	}
	if len(st.Suggestions) != 0 || st.Session != nil || st.Err != "" {
		t.Fatalf("state after reset = %+v", st)
	}
	if hits := f.srv.Hits("/chat/reset"); hits != 1 {
		t.Errorf("reset hits = %d", hits)
	}

	_ = chat.SendMessage(ctx, "hi")
	if got := f.srv.LastChatRequest().SessionToken; got != token {
		t.Errorf("message after reset sent token %q, want %q", got, token)
	}
	st = chat.State()
	if len(st.Messages) != 3 {
		t.Fatalf("messages = %+v", st.Messages)
	}
	if st.Messages[0].Content != WelcomeMessage || st.Messages[1].Content != "hi" || st.Messages[2].Content != apitest.WelcomeReply {
		t.Errorf("transcript = %q / %q / %q", st.Messages[0].Content, st.Messages[1].Content, st.Messages[2].Content)
	}
}

func TestResetChatWithoutToken(t *testing.T) {
	f := newFixture(t)
	chat := f.chat(t)

	if err := chat.ResetChat(context.Background()); err != nil {
		t.Fatalf("ResetChat: %v", err)
	}
	if hits := f.srv.Hits("/chat/reset"); hits != 0 {
		t.Errorf("reset sent without a token")
	}
	if st := chat.State(); len(st.Messages) != 1 || st.Messages[0].Content != WelcomeMessage {
		t.Errorf("messages = %+v", st.Messages)
	}
}

func TestResetChatFailureKeepsTranscript(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	ctx := context.Background()

	_ = chat.SendMessage(ctx, "laptops")
	before := chat.State()

	f.srv.Fail("/chat/reset", http.StatusInternalServerError, "")
	if err := chat.ResetChat(ctx); err == nil {
		t.Fatal("ResetChat succeeded against failing server")
	}
	st := chat.State()
	if st.Err != "Failed to reset chat" {
		t.Errorf("Err = %q", st.Err)
	}
	if len(st.Messages) != len(before.Messages) || len(st.Suggestions) != 1 || st.SessionToken != before.SessionToken {
		t.Errorf("local state changed by failed reset: %+v", st)
	}
}

func TestLoadChatHistoryReplacesTranscript(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	first := f.chat(t)
	_ = first.SendMessage(ctx, "hi")
	_ = first.SendMessage(ctx, "laptops")
	token := first.State().SessionToken

	second := f.chat(t)
	_ = second.SendMessage(ctx, "headphones")

	if err := second.LoadChatHistory(ctx, token); err != nil {
		t.Fatalf("LoadChatHistory: %v", err)
	}
	st := second.State()
	if st.SessionToken != token || st.Session == nil || st.Session.SessionToken != token {
		t.Fatalf("session after load = %+v / %q", st.Session, st.SessionToken)
	}
	if len(st.Messages) != 4 || st.Messages[0].Content != "hi" || st.Messages[3].MessageType != models.MessageTypeBot {
		t.Fatalf("messages after load = %+v", st.Messages)
	}
	for _, m := range st.Messages {
		if m.LocalID != "" {
			t.Errorf("server message carries a local id: %+v", m)
		}
	}

	if err := second.LoadChatHistory(ctx, "no-such-token"); err == nil {
		t.Fatal("LoadChatHistory of unknown session succeeded")
	}
	st = second.State()
	if st.Err != "Session not found" || st.Loading || len(st.Messages) != 4 {
		t.Errorf("state after failed load = %+v", st)
	}

	f.srv.Fail("/chat/history", http.StatusServiceUnavailable, "")
	_ = second.LoadChatHistory(ctx, token)
	if got := second.State().Err; got != "Failed to load chat history" {
		t.Errorf("fallback Err = %q", got)
	}
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)
	_ = chat.SendMessage(context.Background(), "hi")

	resp, err := chat.ListSessions(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].SessionToken != chat.State().SessionToken {
		t.Fatalf("sessions = %+v", resp.Sessions)
	}
}

func TestErrorClearsAfterTTL(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t, WithErrorTTL(50*time.Millisecond))

	f.srv.Fail("/chat/message", http.StatusInternalServerError, "boom")
	_ = chat.SendMessage(context.Background(), "hello")
	if chat.State().Err != "boom" {
		t.Fatal("error not set")
	}
	if !eventually(t, 2*time.Second, func() bool { return chat.State().Err == "" }) {
		t.Fatal("error slot never cleared")
	}
}

func TestErrorTTLOnlyClearsSameError(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t, WithErrorTTL(200*time.Millisecond))
	ctx := context.Background()

	f.srv.Fail("/chat/message", http.StatusInternalServerError, "first")
	_ = chat.SendMessage(ctx, "one")
	time.Sleep(120 * time.Millisecond)

	f.srv.Fail("/chat/message", http.StatusInternalServerError, "second")
	_ = chat.SendMessage(ctx, "two")
	time.Sleep(120 * time.Millisecond)

	// the first timer has expired by now, the second has not
	if got := chat.State().Err; got != "second" {
		t.Fatalf("Err = %q, want second", got)
	}
}

func TestCloseStopsErrorTimer(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t, WithErrorTTL(30*time.Millisecond))

	f.srv.Fail("/chat/message", http.StatusInternalServerError, "boom")
	_ = chat.SendMessage(context.Background(), "hello")
	chat.Close()
	time.Sleep(100 * time.Millisecond)

	if got := chat.State().Err; got != "boom" {
		t.Fatalf("Err = %q after Close, want it kept", got)
	}
}

func TestOnChange(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	chat := f.chat(t)

	var (
		mu        sync.Mutex
		snapshots []ChatState
	)
	chat.OnChange(func(st ChatState) {
		mu.Lock()
		snapshots = append(snapshots, st)
		mu.Unlock()
	})

	_ = chat.SendMessage(context.Background(), "laptops")

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snapshots))
	}
	if !snapshots[0].Typing || len(snapshots[0].Messages) != 1 {
		t.Errorf("pending snapshot = %+v", snapshots[0])
	}
	if snapshots[1].Typing || len(snapshots[1].Messages) != 2 {
		t.Errorf("final snapshot = %+v", snapshots[1])
	}
}
