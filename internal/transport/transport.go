package transport

import "context"

// Action is one inline button attached to an outgoing message. Data is the
// opaque payload echoed back in a CallbackQuery when pressed.
type Action struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Row groups actions rendered on one keyboard line.
type Row []Action

// Messenger is the outbound capability of the chat transport collaborator.
// Delivery failures are returned to the caller, which logs them; they never
// roll back durable state written before the send.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard ...Row) error
	SendPhoto(ctx context.Context, chatID int64, mediaRef, caption string, keyboard ...Row) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// IncomingMessage is a customer or operator message delivered by the
// transport. MediaBatchID groups photos that were sent as one album; it is
// empty for singleton photos.
type IncomingMessage struct {
	ChatID       int64    `json:"chat_id"`
	SenderID     int64    `json:"sender_id"`
	SenderName   string   `json:"sender_name"`
	Text         string   `json:"text,omitempty"`
	PhotoRefs    []string `json:"photo_refs,omitempty"`
	MediaBatchID string   `json:"media_batch_id,omitempty"`
}

// CallbackQuery is an inline button press.
type CallbackQuery struct {
	ID         string `json:"id"`
	ChatID     int64  `json:"chat_id"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Data       string `json:"data"`
}

// Update is one transport event: exactly one of Message or Callback is set.
type Update struct {
	CorrelationID string           `json:"-"`
	Message       *IncomingMessage `json:"message,omitempty"`
	Callback      *CallbackQuery   `json:"callback,omitempty"`
}
