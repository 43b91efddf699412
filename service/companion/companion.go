package companion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/metrics"
)

const (
	WaitForPageReply = "The page is still loading. Please wait for it to finish, then ask again."
	FallbackReply    = "I'm having trouble reaching the reading assistant right now. Please try again in a moment."

	DefaultTimeout = 30 * time.Second
)

var errNotConfigured = errors.New("no generator configured")

// Generator produces a completion for an assembled request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Reply struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded,omitempty"`
}

type Companion struct {
	gen       Generator
	assembler Assembler
	timeout   time.Duration
	logger    *slog.Logger
}

// New returns a Companion. A nil gen makes every chat degrade to the fallback reply.
func New(gen Generator, asm Assembler, timeout time.Duration, logger *slog.Logger) *Companion {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Companion{gen: gen, assembler: asm, timeout: timeout, logger: logger}
}

// Chat answers a reader's question about the page they are on. Upstream
// failures yield the fallback reply rather than an error.
func (c *Companion) Chat(ctx context.Context, in ChatInput) (*Reply, error) {
	if strings.TrimSpace(in.Message) == "" && len(in.History) == 0 {
		return nil, errs.Validation("no message or history provided")
	}
	req, ok := c.assembler.Assemble(in)
	if !ok {
		metrics.CompanionReplies.WithLabelValues("waiting").Inc()
		return &Reply{Reply: WaitForPageReply}, nil
	}

	out, err := c.generate(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "companion generation failed", "error", err, "book", in.BookTitle, "page", in.PageNumber)
		metrics.CompanionReplies.WithLabelValues("fallback").Inc()
		return &Reply{Reply: FallbackReply, Degraded: true}, nil
	}
	metrics.CompanionReplies.WithLabelValues("generated").Inc()
	return &Reply{Reply: out}, nil
}

// Synopsis drafts a short description for a new book.
func (c *Companion) Synopsis(ctx context.Context, title, author string) (string, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	if title == "" || author == "" {
		return "", errs.Validation("title and author are required")
	}
	out, err := c.generate(ctx, SynopsisRequest(title, author))
	if err != nil {
		c.logger.WarnContext(ctx, "synopsis generation failed", "error", err, "title", title)
		return "", errs.Upstream(err, "could not generate synopsis")
	}
	return out, nil
}

// generate applies the timeout and treats blank output as a failure.
func (c *Companion) generate(ctx context.Context, req Request) (string, error) {
	if c.gen == nil {
		return "", errNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.gen.Generate(ctx, req)
	metrics.CompanionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("generator returned no text")
	}
	return out, nil
}
