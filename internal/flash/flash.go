// Package flash queues one-shot notifications in the browser session and
// hands them to the next rendered page.
package flash

import (
	"context"
	"encoding/gob"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/joestump/feedback-web/internal/metrics"
)

// Type is the visual category of a notification.
type Type string

const (
	Success Type = "success"
	Danger  Type = "danger"
	Warning Type = "warning"
	Info    Type = "info"
)

// DefaultDismissAfter is how long a notification stays before it is hidden.
const DefaultDismissAfter = 5 * time.Second

// Headers an upstream response may carry to queue a notification.
const (
	HeaderType    = "X-Flash-Type"
	HeaderMessage = "X-Flash-Message"
)

const sessionKey = "flash"

// ParseType maps s to a Type. Unknown values become Info.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Success, Danger, Warning, Info:
		return t
	case "error":
		return Danger
	}
	return Info
}

// Icon is the Bootstrap Icons name shown next to the message.
func (t Type) Icon() string {
	switch t {
	case Success:
		return "check-circle"
	case Danger, Warning:
		return "exclamation-triangle"
	default:
		return "info-circle"
	}
}

// Message is one queued notification.
type Message struct {
	ID           string
	Type         Type
	Text         string
	DismissAfter time.Duration
}

// Icon returns the icon for the message's type.
func (m Message) Icon() string { return m.Type.Icon() }

// DismissAfterMS is the dismiss delay in milliseconds, as used by the page
// script. Zero means the message stays until closed.
func (m Message) DismissAfterMS() int64 { return m.DismissAfter.Milliseconds() }

func init() {
	gob.Register([]Message{})
}

// Notifier stores messages in the scs session.
type Notifier struct {
	sessions *scs.SessionManager
	delay    time.Duration
}

// NewNotifier returns a Notifier. A non-positive delay uses DefaultDismissAfter.
func NewNotifier(sm *scs.SessionManager, delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDismissAfter
	}
	return &Notifier{sessions: sm, delay: delay}
}

// Push queues a message for the next page render.
func (n *Notifier) Push(ctx context.Context, typ Type, text string) Message {
	m := Message{
		ID:           "flash-" + uuid.NewString(),
		Type:         ParseType(string(typ)),
		Text:         text,
		DismissAfter: n.delay,
	}
	queued, _ := n.sessions.Get(ctx, sessionKey).([]Message)
	n.sessions.Put(ctx, sessionKey, append(queued, m))
	metrics.FlashMessagesTotal.WithLabelValues(string(m.Type)).Inc()
	return m
}

// Pop returns and removes every queued message.
func (n *Notifier) Pop(ctx context.Context) []Message {
	msgs, _ := n.sessions.Pop(ctx, sessionKey).([]Message)
	return msgs
}

// ImportHeaders queues the notification an upstream response announced via
// X-Flash-Type and X-Flash-Message. The message is reduced to plain text.
// It reports whether anything was queued.
func (n *Notifier) ImportHeaders(ctx context.Context, h http.Header) bool {
	text := Sanitize(h.Get(HeaderMessage))
	if text == "" {
		return false
	}
	n.Push(ctx, ParseType(h.Get(HeaderType)), text)
	return true
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips all markup from s and returns the remaining plain text.
// Entities are decoded again; templates escape on output.
func Sanitize(s string) string {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
