// Package companion builds grounded prompts for the AI reading companion and
// talks to an OpenAI-compatible generator. Nothing is persisted between calls.
package companion

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultMaxPageChars = 6000
	DefaultMaxHistory   = 20
)

// Message is one chat message sent to the generator.
type Message struct {
	Role    string
	Content string
}

// Turn is a prior exchange as the client reports it.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ChatInput struct {
	Message     string `json:"message"`
	History     []Turn `json:"history"`
	PageContent string `json:"pageContent"`
	PageNumber  int    `json:"pageNumber"`
	BookTitle   string `json:"bookTitle"`
	BookAuthor  string `json:"bookAuthor"`
}

// Request is a fully assembled generation call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Assembler bounds what the generator sees. Zero fields use the defaults.
type Assembler struct {
	MaxPageChars int
	MaxHistory   int
}

const systemTemplate = `You are an expert academic tutor helping a student read "%s" by %s.
CURRENT CONTEXT: the student is on page %d.
PAGE TEXT: "%s"

INSTRUCTIONS:
1. Stay on "%s". If the page text is vague, use general knowledge of the book.
2. For summaries give a structured breakdown with bold headers and bullet points.
3. Use the chat history to resolve follow-up questions.
4. Be encouraging, concise and professional.`

// Assemble returns the ordered messages for in. It reports false when there
// is no page text to ground an answer in.
func (a Assembler) Assemble(in ChatInput) (Request, bool) {
	page := strings.TrimSpace(in.PageContent)
	if page == "" {
		return Request{}, false
	}
	page = truncateRunes(page, a.maxPageChars())

	title := strings.TrimSpace(in.BookTitle)
	if title == "" {
		title = "this book"
	}
	author := strings.TrimSpace(in.BookAuthor)
	if author == "" {
		author = "an unknown author"
	}

	history := a.history(in.History)
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf(systemTemplate, title, author, in.PageNumber, page, title),
	})
	msgs = append(msgs, history...)
	if msg := strings.TrimSpace(in.Message); msg != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: msg})
	}
	return Request{Messages: msgs, Temperature: 0.3, MaxTokens: 800}, true
}

// history maps client turns to generator roles, drops empty turns and keeps the newest.
func (a Assembler) history(turns []Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		out = append(out, Message{Role: mapRole(t.Role), Content: text})
	}
	if limit := a.maxHistory(); len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func mapRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "ai", RoleAssistant:
		return RoleAssistant
	default:
		return RoleUser
	}
}

func (a Assembler) maxPageChars() int {
	if a.MaxPageChars <= 0 {
		return DefaultMaxPageChars
	}
	return a.MaxPageChars
}

func (a Assembler) maxHistory() int {
	if a.MaxHistory < 0 {
		return 0
	}
	if a.MaxHistory == 0 {
		return DefaultMaxHistory
	}
	return a.MaxHistory
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// SynopsisRequest asks for a short synopsis of a book.
func SynopsisRequest(title, author string) Request {
	prompt := fmt.Sprintf("Generate a 3-5 sentence synopsis for the book %q by %s. Return ONLY the synopsis text.", title, author)
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: 0.6,
		MaxTokens:   300,
	}
}
