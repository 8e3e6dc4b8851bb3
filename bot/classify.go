package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrsingh-rishi/transcribe-bot/pipeline"
)

// upload is the file-bearing part of an inbound message.
type upload struct {
	kind     pipeline.Kind
	fileID   string
	fileName string
	mimeType string
	fileSize int64
}

// classify picks the audio payload of a message: voice note first, then
// audio file, then document. ok is false for messages without a file.
func classify(msg *tgbotapi.Message) (upload, bool) {
	switch {
	case msg.Voice != nil:
		return upload{
			kind:     pipeline.KindVoice,
			fileID:   msg.Voice.FileID,
			mimeType: msg.Voice.MimeType,
			fileSize: int64(msg.Voice.FileSize),
		}, true
	case msg.Audio != nil:
		return upload{
			kind:     pipeline.KindAudio,
			fileID:   msg.Audio.FileID,
			fileName: msg.Audio.FileName,
			mimeType: msg.Audio.MimeType,
			fileSize: int64(msg.Audio.FileSize),
		}, true
	case msg.Document != nil:
		return upload{
			kind:     pipeline.KindDocument,
			fileID:   msg.Document.FileID,
			fileName: msg.Document.FileName,
			mimeType: msg.Document.MimeType,
			fileSize: int64(msg.Document.FileSize),
		}, true
	default:
		return upload{}, false
	}
}
