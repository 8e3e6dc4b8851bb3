package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

type fileURLGetter interface {
	GetFileDirectURL(fileID string) (string, error)
}

// telegramFile downloads one uploaded file through the Bot API file endpoint.
type telegramFile struct {
	api      fileURLGetter
	client   *http.Client
	fileID   string
	maxBytes int64
}

// Download streams the file to dst. Returned errors never include the
// resolved URL, which embeds the bot token.
func (f *telegramFile) Download(ctx context.Context, dst string) error {
	url, err := f.api.GetFileDirectURL(f.fileID)
	if err != nil {
		return errors.Wrap(err, "resolve file")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New("build download request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New("file request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file request returned status %d", resp.StatusCode)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "create input file")
	}
	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "write input file")
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		return errors.Errorf("file exceeds %d bytes", f.maxBytes)
	}
	return nil
}
