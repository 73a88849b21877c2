package transport

import (
	"context"
	"errors"
)

// Button is one inline keyboard button: a label plus the encoded callback
// payload the transport sends back when pressed
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Outgoing is a message the core wants delivered or edited. Edit set means
// the conversation's running message is edited in place rather than a new
// message being sent.
type Outgoing struct {
	ChatID   int64      `json:"chatId"`
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
	Edit     bool       `json:"edit"`
}

// Messenger is the chat-transport collaborator. The core only states which
// messages exist and in what order; delivery, retries and user identity are
// the gateway's problem.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, keyboard [][]Button) error
	Edit(ctx context.Context, chatID int64, text string, keyboard [][]Button) error
}

type recorderKey struct{}

// WithRecorder attaches a Recorder to the context for the duration of one
// request
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// RecorderFrom retrieves the request's Recorder, or nil when none is set
func RecorderFrom(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// ContextMessenger routes outgoing messages to the Recorder carried by the
// request context, keeping concurrent requests' messages apart while the
// services hold a single Messenger.
type ContextMessenger struct{}

var _ Messenger = ContextMessenger{}

// Send records a new message on the request's Recorder
func (ContextMessenger) Send(ctx context.Context, chatID int64, text string, keyboard [][]Button) error {
	r := RecorderFrom(ctx)
	if r == nil {
		return errors.New("transport: no recorder in context")
	}
	return r.Send(ctx, chatID, text, keyboard)
}

// Edit records an in-place edit on the request's Recorder
func (ContextMessenger) Edit(ctx context.Context, chatID int64, text string, keyboard [][]Button) error {
	r := RecorderFrom(ctx)
	if r == nil {
		return errors.New("transport: no recorder in context")
	}
	return r.Edit(ctx, chatID, text, keyboard)
}

// Recorder collects outgoing messages for the HTTP layer to hand back to
// the gateway, and doubles as the test fake
type Recorder struct {
	Messages []Outgoing
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records a new message
func (r *Recorder) Send(_ context.Context, chatID int64, text string, keyboard [][]Button) error {
	r.Messages = append(r.Messages, Outgoing{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

// Edit records an in-place edit of the conversation's running message
func (r *Recorder) Edit(_ context.Context, chatID int64, text string, keyboard [][]Button) error {
	r.Messages = append(r.Messages, Outgoing{ChatID: chatID, Text: text, Keyboard: keyboard, Edit: true})
	return nil
}
