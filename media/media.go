// Package media wraps ffprobe and ffmpeg for duration probing and conversion
// to the canonical mono 16 kHz 16-bit PCM WAV format.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	ProbeTimeout   = 30 * time.Second
	ConvertTimeout = 120 * time.Second
)

// ProbeError reports a failed duration probe.
type ProbeError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string { return "ffprobe: " + e.Reason }

func (e *ProbeError) Unwrap() error { return e.Err }

// ConversionError reports a failed conversion to canonical audio.
type ConversionError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string { return "audio conversion: " + e.Reason }

func (e *ConversionError) Unwrap() error { return e.Err }

// Tool probes and converts audio with external binaries.
type Tool struct {
	ffprobePath string
	ffmpegPath  string
	runner      Runner
	logger      *slog.Logger
}

// NewTool returns a Tool that uses ffprobe and ffmpeg from PATH.
func NewTool(logger *slog.Logger) *Tool {
	return NewToolWithRunner("ffprobe", "ffmpeg", ExecRunner{}, logger)
}

// NewToolWithRunner builds a Tool with explicit binaries and runner.
func NewToolWithRunner(ffprobePath, ffmpegPath string, runner Runner, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{ffprobePath: ffprobePath, ffmpegPath: ffmpegPath, runner: runner, logger: logger}
}

// ProbeDuration returns the media duration in seconds.
func (t *Tool) ProbeDuration(ctx context.Context, path string) (float64, error) {
	res, err := t.runner.Run(ctx, ProbeTimeout, t.ffprobePath, buildProbeArgs(path)...)
	if err != nil {
		return 0, &ProbeError{Reason: failureReason(err, res, "probe"), Stderr: res.Stderr, Err: err}
	}
	if res.ExitCode != 0 {
		return 0, &ProbeError{Reason: fmt.Sprintf("exit status %d", res.ExitCode), Stderr: res.Stderr}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		return 0, &ProbeError{Reason: "could not parse duration", Stderr: res.Stderr, Err: err}
	}
	t.logger.Debug("audio duration", "seconds", duration)
	return duration, nil
}

// ConvertToCanonical writes a mono 16 kHz pcm_s16le WAV to outputPath,
// overwriting any existing file.
func (t *Tool) ConvertToCanonical(ctx context.Context, inputPath, outputPath string) error {
	res, err := t.runner.Run(ctx, ConvertTimeout, t.ffmpegPath, buildConvertArgs(inputPath, outputPath)...)
	if err != nil {
		return &ConversionError{Reason: failureReason(err, res, "conversion"), Stderr: res.Stderr, Err: err}
	}
	if res.ExitCode != 0 {
		return &ConversionError{Reason: fmt.Sprintf("exit status %d", res.ExitCode), Stderr: res.Stderr}
	}
	return nil
}

func failureReason(err error, res Result, what string) string {
	if errors.Is(err, ErrTimeout) {
		return what + " timed out"
	}
	if errors.Is(err, context.Canceled) {
		return what + " cancelled"
	}
	if res.ExitCode > 0 {
		return fmt.Sprintf("exit status %d", res.ExitCode)
	}
	return err.Error()
}

// buildProbeArgs prints only the container duration as a bare number.
func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// buildConvertArgs builds ffmpeg args for mono 16k PCM WAV output.
func buildConvertArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		outputPath,
	}
}
