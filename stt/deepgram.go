package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	gws "github.com/gorilla/websocket"

	"github.com/mrsingh-rishi/transcribe-bot/types"
)

// DefaultDeepgramURL is the streaming listen endpoint.
const DefaultDeepgramURL = "wss://api.deepgram.com/v1/listen"

const deepgramFrameSize = 8 * 1024

// Deepgram streams a finished file over the live websocket API and
// collects the final results.
type Deepgram struct {
	APIKey   string
	Endpoint string
	Model    string
	Dialer   *gws.Dialer
	logger   *slog.Logger
}

type deepgramMessage struct {
	Type     string  `json:"type"`
	IsFinal  bool    `json:"is_final"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Channel  struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
		DetectedLanguage string `json:"detected_language"`
	} `json:"channel"`
}

// NewDeepgram creates the client. An empty endpoint uses DefaultDeepgramURL.
func NewDeepgram(apiKey, endpoint string, logger *slog.Logger) (*Deepgram, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Deepgram API key is required")
	}
	if endpoint == "" {
		endpoint = DefaultDeepgramURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deepgram{
		APIKey:   apiKey,
		Endpoint: endpoint,
		Model:    "nova-2",
		Dialer:   gws.DefaultDialer,
		logger:   logger,
	}, nil
}

func (dg *Deepgram) listenURL(language string) (string, error) {
	base, err := url.Parse(dg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse deepgram endpoint: %w", err)
	}
	q := base.Query()
	q.Set("model", dg.Model)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	if language != "" {
		q.Set("language", language)
	} else {
		q.Set("detect_language", "true")
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Transcribe sends the WAV as binary frames, then CloseStream, and reads
// results until the server closes the socket.
func (dg *Deepgram) Transcribe(ctx context.Context, req Request) (types.TranscriptionResult, error) {
	dgURL, err := dg.listenURL(req.Language)
	if err != nil {
		return types.TranscriptionResult{}, err
	}
	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", dg.APIKey)},
	}
	conn, _, err := dg.Dialer.DialContext(ctx, dgURL, header)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("deepgram dial: %w", err)
	}
	defer conn.Close()
	dg.logger.Debug("stt: connected to Deepgram")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- dg.sendFile(conn, req.AudioPath)
	}()

	var (
		segments []types.Segment
		detected string
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return types.TranscriptionResult{}, ctx.Err()
			}
			if !gws.IsCloseError(err, gws.CloseNormalClosure) && !isEOF(err) {
				return types.TranscriptionResult{}, fmt.Errorf("deepgram read: %w", err)
			}
			break
		}
		var msg deepgramMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			dg.logger.Warn("stt: unparseable Deepgram message", "error", err)
			continue
		}
		if msg.Channel.DetectedLanguage != "" {
			detected = msg.Channel.DetectedLanguage
		}
		if !msg.IsFinal || len(msg.Channel.Alternatives) == 0 {
			continue
		}
		segments = append(segments, types.Segment{
			Start: msg.Start,
			End:   msg.Start + msg.Duration,
			Text:  msg.Channel.Alternatives[0].Transcript,
		})
	}
	if err := <-writeErr; err != nil {
		return types.TranscriptionResult{}, err
	}

	text, kept := FormatSegments(segments, req.Timestamps)
	fallback := LanguageAuto
	if req.Timestamps {
		fallback = LanguageUnknown
	}
	result := types.TranscriptionResult{
		Text:     text,
		Language: languageOr(detected, req.Language, fallback),
	}
	if req.Timestamps {
		result.Segments = kept
	}
	return result, nil
}

func (dg *Deepgram) sendFile(conn *gws.Conn, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	buf := make([]byte, deepgramFrameSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(gws.BinaryMessage, buf[:n]); werr != nil {
				return fmt.Errorf("deepgram write: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
	}
	if err := conn.WriteMessage(gws.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return fmt.Errorf("deepgram close stream: %w", err)
	}
	return nil
}

func isEOF(err error) bool {
	return err == io.EOF || strings.Contains(err.Error(), "unexpected EOF")
}
