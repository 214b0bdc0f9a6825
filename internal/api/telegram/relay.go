package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the relay uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Audio describes a finished track to post.
type Audio struct {
	Path      string
	ThumbPath string
	Caption   string
	Performer string
	Title     string
	Duration  int
}

// Relay posts covers, audio files and status messages into chats.
type Relay struct {
	api API
}

// NewRelay connects to the Bot API with token.
func NewRelay(token string) (*Relay, *tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return &Relay{api: bot}, bot, nil
}

// NewRelayWithAPI wraps an existing API handle.
func NewRelayWithAPI(api API) *Relay {
	return &Relay{api: api}
}

// SendText posts an HTML message and returns its id.
func (r *Relay) SendText(chatID int64, replyTo int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	msg.DisableWebPagePreview = true
	sent, err := r.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

// EditText replaces the text of a message sent earlier.
func (r *Relay) EditText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := r.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeleteMessage removes a message.
func (r *Relay) DeleteMessage(chatID int64, messageID int) error {
	if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendPhoto posts an album cover by URL with a caption.
func (r *Relay) SendPhoto(chatID int64, replyTo int, photoURL, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyToMessageID = replyTo
	if _, err := r.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// SendAudio uploads a track.
func (r *Relay) SendAudio(chatID int64, replyTo int, a Audio) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(a.Path))
	audio.Caption = a.Caption
	audio.ParseMode = tgbotapi.ModeHTML
	audio.Performer = a.Performer
	audio.Title = a.Title
	audio.Duration = a.Duration
	audio.ReplyToMessageID = replyTo
	if a.ThumbPath != "" {
		audio.Thumb = tgbotapi.FilePath(a.ThumbPath)
	}
	if _, err := r.api.Send(audio); err != nil {
		return fmt.Errorf("failed to send audio %s: %w", a.Title, err)
	}
	return nil
}
