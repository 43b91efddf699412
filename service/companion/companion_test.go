package companion

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

type recordingGenerator struct {
	mu    sync.Mutex
	calls []Request
	out   string
	err   error
	delay time.Duration
}

func (g *recordingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.out, g.err
}

func (g *recordingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestAssemble_Order(t *testing.T) {
	req, ok := Assembler{}.Assemble(ChatInput{
		Message:     "What does this mean?",
		History:     []Turn{{Role: "user", Text: "hi"}, {Role: "ai", Text: "hello"}, {Role: "assistant", Text: "welcome"}, {Role: "bot", Text: "odd"}},
		PageContent: "It was the best of times.",
		PageNumber:  12,
		BookTitle:   "A Tale of Two Cities",
		BookAuthor:  "Charles Dickens",
	})
	require.True(t, ok)
	require.Len(t, req.Messages, 6)

	sys := req.Messages[0]
	assert.Equal(t, RoleSystem, sys.Role)
	assert.Contains(t, sys.Content, `"A Tale of Two Cities" by Charles Dickens`)
	assert.Contains(t, sys.Content, "page 12")
	assert.Contains(t, sys.Content, "It was the best of times.")

	roles := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{RoleSystem, RoleUser, RoleAssistant, RoleAssistant, RoleUser, RoleUser}, roles)
	assert.Equal(t, "What does this mean?", req.Messages[5].Content)
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	assert.Equal(t, 800, req.MaxTokens)
}

func TestAssemble_BlankPage(t *testing.T) {
	for _, page := range []string{"", "   ", "\n\t"} {
		_, ok := Assembler{}.Assemble(ChatInput{Message: "hi", PageContent: page})
		assert.False(t, ok, "page %q", page)
	}
}

func TestAssemble_Bounds(t *testing.T) {
	var history []Turn
	for i := range 30 {
		history = append(history, Turn{Role: "user", Text: strings.Repeat("x", i+1)})
	}
	history = append(history, Turn{Role: "ai", Text: "  "})

	page := strings.Repeat("é", 50)
	req, ok := Assembler{MaxPageChars: 10, MaxHistory: 5}.Assemble(ChatInput{
		Message: "q", History: history, PageContent: page, BookTitle: "T", BookAuthor: "A",
	})
	require.True(t, ok)

	// system + 5 history + new message
	require.Len(t, req.Messages, 7)
	assert.Contains(t, req.Messages[0].Content, `"`+strings.Repeat("é", 10)+`"`)
	assert.NotContains(t, req.Messages[0].Content, strings.Repeat("é", 11))
	assert.Equal(t, strings.Repeat("x", 26), req.Messages[1].Content)
	assert.Equal(t, strings.Repeat("x", 30), req.Messages[5].Content)
}

func TestAssemble_HistoryOnly(t *testing.T) {
	req, ok := Assembler{}.Assemble(ChatInput{History: []Turn{{Role: "user", Text: "explain"}}, PageContent: "text"})
	require.True(t, ok)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "explain", req.Messages[1].Content)
}

func TestChat_BlankPageNeverCallsGenerator(t *testing.T) {
	gen := &recordingGenerator{out: "should not be used"}
	c := New(gen, Assembler{}, time.Second, discard)

	reply, err := c.Chat(context.Background(), ChatInput{Message: "summarize", PageContent: ""})
	require.NoError(t, err)
	assert.Equal(t, WaitForPageReply, reply.Reply)
	assert.False(t, reply.Degraded)
	assert.Zero(t, gen.callCount())
}

func TestChat_Generated(t *testing.T) {
	gen := &recordingGenerator{out: "  It's about revolution.  "}
	c := New(gen, Assembler{}, time.Second, discard)

	reply, err := c.Chat(context.Background(), ChatInput{Message: "what?", PageContent: "text", BookTitle: "T"})
	require.NoError(t, err)
	assert.Equal(t, "It's about revolution.", reply.Reply)
	assert.False(t, reply.Degraded)
	assert.Equal(t, 1, gen.callCount())
}

func TestChat_Fallback(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{name: "upstream error", gen: &recordingGenerator{err: errors.New("503 from upstream")}},
		{name: "empty output", gen: &recordingGenerator{out: "   "}},
		{name: "timeout", gen: &recordingGenerator{out: "late", delay: time.Second}},
		{name: "not configured", gen: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.gen, Assembler{}, 20*time.Millisecond, discard)
			reply, err := c.Chat(context.Background(), ChatInput{Message: "hi", PageContent: "text"})
			require.NoError(t, err)
			assert.Equal(t, FallbackReply, reply.Reply)
			assert.True(t, reply.Degraded)
		})
	}
}

func TestChat_RequiresMessageOrHistory(t *testing.T) {
	c := New(&recordingGenerator{out: "x"}, Assembler{}, time.Second, discard)
	_, err := c.Chat(context.Background(), ChatInput{Message: "  ", PageContent: "text"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSynopsis(t *testing.T) {
	gen := &recordingGenerator{out: "A short synopsis."}
	c := New(gen, Assembler{}, time.Second, discard)

	out, err := c.Synopsis(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "A short synopsis.", out)
	require.Equal(t, 1, gen.callCount())
	req := gen.calls[0]
	assert.Equal(t, 300, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, `"Dune" by Frank Herbert`)

	_, err = c.Synopsis(context.Background(), "Dune", " ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	failing := New(&recordingGenerator{err: errors.New("down")}, Assembler{}, time.Second, discard)
	_, err = failing.Synopsis(context.Background(), "Dune", "Frank Herbert")
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Equal(t, 500, errs.From(err).HTTPStatus())
}

func TestOpenAIGenerator(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", srv.URL, "", discard)
	out, err := g.Generate(context.Background(), Request{
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		Temperature: 0.3,
		MaxTokens:   800,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIGenerator("k", srv.URL, "m", discard).Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}
