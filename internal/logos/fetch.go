package logos

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/fortuna/matchday/internal/domain"
)

const (
	maxImageBytes = 10 << 20
	browserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

// downloader fetches remote images and checks that they decode.
type downloader struct {
	http *http.Client
}

func (d downloader) image(ctx context.Context, source, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, domain.Unavailable(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Unavailable(source, fmt.Errorf("GET %s: status %d", imageURL, resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, domain.Unavailable(source, fmt.Errorf("read body: %w", err))
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", imageURL, err)
	}
	return img, nil
}
