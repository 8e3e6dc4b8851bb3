package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsingh-rishi/transcribe-bot/pipeline"
	"github.com/mrsingh-rishi/transcribe-bot/tts"
)

// fileSource copies a local file into the job workspace.
type fileSource struct {
	path string
}

func (s fileSource) Download(ctx context.Context, dst string) error {
	in, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func localRequest(path, caption string) (pipeline.Request, error) {
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.Request{}, err
	}
	if info.IsDir() {
		return pipeline.Request{}, fmt.Errorf("%s is a directory", path)
	}
	return pipeline.Request{
		Kind:     pipeline.KindAudio,
		FileName: filepath.Base(path),
		FileSize: info.Size(),
		Caption:  caption,
		Source:   fileSource{path: path},
	}, nil
}

// consoleReplier prints replies instead of sending them. Status lines go
// to the same writer prefixed with "..".
type consoleReplier struct {
	w io.Writer
}

func newConsoleReplier(w io.Writer) *consoleReplier {
	return &consoleReplier{w: w}
}

func (c *consoleReplier) Status(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(c.w, ".. %s\n", text)
	return err
}

func (c *consoleReplier) ClearStatus(ctx context.Context) error { return nil }

func (c *consoleReplier) SendText(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(c.w, "%s\n%s\n", text, strings.Repeat("-", 40))
	return err
}

func (c *consoleReplier) SendMarkdown(ctx context.Context, text string) error {
	return c.SendText(ctx, text)
}

func (c *consoleReplier) SendAudio(ctx context.Context, att tts.Attachment) error {
	// Copy out before the workspace is removed.
	dst := "reply" + filepath.Ext(att.Path)
	if err := (fileSource{path: att.Path}).Download(ctx, dst); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.w, "audio reply saved to %s\n", dst)
	return err
}
