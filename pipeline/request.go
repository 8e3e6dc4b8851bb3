package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mrsingh-rishi/transcribe-bot/tts"
	"github.com/mrsingh-rishi/transcribe-bot/workspace"
)

// Kind is the inbound content kind.
type Kind int

const (
	KindUnsupported Kind = iota
	KindVoice
	KindAudio
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	case KindAudio:
		return "audio"
	case KindDocument:
		return "document"
	default:
		return "unsupported"
	}
}

//go:generate mockgen -source=request.go -destination=mocks_test.go -package=pipeline

// Source fetches the uploaded bytes into dst.
type Source interface {
	Download(ctx context.Context, dst string) error
}

// Request is one inbound upload.
type Request struct {
	Kind     Kind
	FileName string
	MimeType string
	FileSize int64 // declared by the transport, 0 when unknown
	Caption  string
	UserID   int64
	Source   Source
}

// Replier sends job output back to the requester.
type Replier interface {
	// Status shows or replaces the in-progress status message.
	Status(ctx context.Context, text string) error
	// ClearStatus removes the status message, if any.
	ClearStatus(ctx context.Context) error
	SendText(ctx context.Context, text string) error
	SendMarkdown(ctx context.Context, text string) error
	SendAudio(ctx context.Context, att tts.Attachment) error
}

// Workspace allocates and releases job directories.
type Workspace interface {
	CreateJob() (*workspace.Job, error)
	Cleanup(job *workspace.Job)
}

// Media probes and normalizes audio files.
type Media interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ConvertToCanonical(ctx context.Context, inputPath, outputPath string) error
}

// SupportedDocument reports whether a document upload looks like audio or
// video, by MIME prefix first and file extension second.
func SupportedDocument(mimeType, fileName string, mimePrefixes, extensions []string) bool {
	if mimeType != "" {
		for _, p := range mimePrefixes {
			if strings.HasPrefix(mimeType, p) {
				return true
			}
		}
	}
	if fileName != "" {
		ext := strings.ToLower(filepath.Ext(fileName))
		for _, e := range extensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}
