// Package output delivers job replies to a Telegram chat.
package output

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/transcribe-bot/tts"
)

// Sender is the subset of *tgbotapi.BotAPI used for replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram replies to one inbound message. It keeps a single status
// message that is edited in place and deleted before delivery.
type Telegram struct {
	sender    Sender
	chatID    int64
	replyTo   int
	logger    *slog.Logger
	statusID  int
	lastState string
}

func NewTelegram(sender Sender, chatID int64, replyTo int, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{sender: sender, chatID: chatID, replyTo: replyTo, logger: logger}
}

// Status posts the status message on first use and edits it afterwards.
func (t *Telegram) Status(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.statusID == 0 {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ReplyToMessageID = t.replyTo
		sent, err := t.sender.Send(msg)
		if err != nil {
			return errors.Wrap(err, "send status")
		}
		t.statusID = sent.MessageID
		t.lastState = text
		return nil
	}
	if text == t.lastState {
		return nil
	}
	if _, err := t.sender.Request(tgbotapi.NewEditMessageText(t.chatID, t.statusID, text)); err != nil {
		return errors.Wrap(err, "edit status")
	}
	t.lastState = text
	return nil
}

// ClearStatus deletes the status message if one was posted.
func (t *Telegram) ClearStatus(ctx context.Context) error {
	if t.statusID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id := t.statusID
	t.statusID = 0
	t.lastState = ""
	if _, err := t.sender.Request(tgbotapi.NewDeleteMessage(t.chatID, id)); err != nil {
		return errors.Wrap(err, "delete status")
	}
	return nil
}

func (t *Telegram) SendText(ctx context.Context, text string) error {
	return t.sendText(ctx, text, "")
}

func (t *Telegram) SendMarkdown(ctx context.Context, text string) error {
	return t.sendText(ctx, text, tgbotapi.ModeMarkdown)
}

func (t *Telegram) sendText(ctx context.Context, text, parseMode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ReplyToMessageID = t.replyTo
	msg.ParseMode = parseMode
	if _, err := t.sender.Send(msg); err != nil {
		return errors.Wrap(err, "send message")
	}
	return nil
}

// SendAudio uploads a synthesized reply as a voice note or audio file.
func (t *Telegram) SendAudio(ctx context.Context, att tts.Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := tgbotapi.FilePath(att.Path)
	var c tgbotapi.Chattable
	switch att.Kind {
	case tts.KindVoice:
		voice := tgbotapi.NewVoice(t.chatID, file)
		voice.ReplyToMessageID = t.replyTo
		c = voice
	default:
		audio := tgbotapi.NewAudio(t.chatID, file)
		audio.ReplyToMessageID = t.replyTo
		c = audio
	}
	if _, err := t.sender.Send(c); err != nil {
		return errors.Wrap(err, "send audio")
	}
	t.logger.Debug("audio reply sent", "chat_id", t.chatID, "kind", att.Kind)
	return nil
}
