package test

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/transport"
)

// SentText captures one SendText invocation.
type SentText struct {
	ChatID   int64
	Text     string
	Keyboard []transport.Row
}

// SentPhoto captures one SendPhoto invocation.
type SentPhoto struct {
	ChatID   int64
	MediaRef string
	Caption  string
	Keyboard []transport.Row
}

// MessengerRecorder records outgoing messages for assertions.
type MessengerRecorder struct {
	Texts     []SentText
	Photos    []SentPhoto
	Callbacks []string
	Err       error
}

func (m *MessengerRecorder) SendText(ctx context.Context, chatID int64, text string, keyboard ...transport.Row) error {
	if m.Err != nil {
		return m.Err
	}
	m.Texts = append(m.Texts, SentText{ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

func (m *MessengerRecorder) SendPhoto(ctx context.Context, chatID int64, mediaRef, caption string, keyboard ...transport.Row) error {
	if m.Err != nil {
		return m.Err
	}
	m.Photos = append(m.Photos, SentPhoto{ChatID: chatID, MediaRef: mediaRef, Caption: caption, Keyboard: keyboard})
	return nil
}

func (m *MessengerRecorder) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Callbacks = append(m.Callbacks, callbackID)
	return nil
}

// TextsFor returns texts delivered to one chat, in send order.
func (m *MessengerRecorder) TextsFor(chatID int64) []string {
	var result []string
	for _, sent := range m.Texts {
		if sent.ChatID == chatID {
			result = append(result, sent.Text)
		}
	}
	return result
}

// LastText returns the most recent text sent to the chat, or empty string.
func (m *MessengerRecorder) LastText(chatID int64) string {
	texts := m.TextsFor(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}
