// Package source resolves export source images to their bytes, from either
// a remote URL or the configured S3 media bucket.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/lunahq/creator-export/internal/export"
)

// Client implements export.Fetcher. Images referencing an S3 key require S3
// and Bucket to be configured; URL images only need HTTP.
type Client struct {
	HTTP   *http.Client
	S3     *s3.Client
	Bucket string
}

var _ export.Fetcher = (*Client)(nil)

// Fetch returns the source bytes for img, resolving whichever of URL and
// S3Key the request supplied.
func (c *Client) Fetch(ctx context.Context, img export.SourceImage) ([]byte, error) {
	switch {
	case img.URL != "":
		return c.fetchURL(ctx, img.URL)
	case img.S3Key != "":
		return c.fetchS3(ctx, img.S3Key)
	}
	return nil, fmt.Errorf("image %q has neither url nor s3Key", img.Filename)
}

func (c *Client) fetchURL(ctx context.Context, url string) ([]byte, error) {
	log.Debug().Str("url", url).Msg("Fetching source image over HTTP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) fetchS3(ctx context.Context, key string) ([]byte, error) {
	if c.S3 == nil || c.Bucket == "" {
		return nil, fmt.Errorf("s3 source not configured (key %s)", key)
	}
	log.Debug().Str("bucket", c.Bucket).Str("key", key).Msg("Fetching source image from S3")

	result, err := c.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.Bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read S3 object %s: %w", key, err)
	}
	return data, nil
}
