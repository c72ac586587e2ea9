package walkthrough

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyMessage is returned for blank chat input.
	ErrEmptyMessage = errors.New("empty message")
	// ErrChatUnavailable is returned when no chat backend is configured.
	ErrChatUnavailable = errors.New("chat unavailable")
)

// Author of a chat message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Message is one transcript entry.
type Message struct {
	ID     string
	Author Author
	Text   string
	At     time.Time
}

// Chat is the append-only travel-buddy transcript. Sends are serialized so
// replies always follow the message they answer.
type Chat struct {
	owner   *Walkthrough
	userID  string
	backend ChatBackend
	logger  zerolog.Logger
	now     func() time.Time

	sendMu sync.Mutex

	mu       sync.Mutex
	messages []Message
}

func newChat(owner *Walkthrough, userID string) *Chat {
	return &Chat{owner: owner, userID: userID, logger: zerolog.Nop(), now: time.Now}
}

func (c *Chat) append(author Author, text string) Message {
	msg := Message{ID: uuid.NewString(), Author: author, Text: text, At: c.now()}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	return msg
}

func (c *Chat) appendBot(text string) {
	c.append(AuthorBot, text)
}

// Send forwards text verbatim to the chatbot and appends the user message
// and then the reply. A reply arriving after Close is dropped.
func (c *Chat) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	if c.backend == nil {
		return Message{}, ErrChatUnavailable
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.owner.isClosed() {
		return Message{}, ErrClosed
	}
	c.append(AuthorUser, text)

	reply, err := c.backend.ChatFromStartMyDay(ctx, c.userID, text, "")
	if err != nil {
		c.logger.Warn().Err(err).Msg("chat send failed")
		return Message{}, err
	}
	if c.owner.isClosed() {
		return Message{}, ErrClosed
	}
	return c.append(AuthorBot, reply.Message), nil
}

// Transcript returns the messages in order.
func (c *Chat) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}
