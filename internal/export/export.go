// Package export runs the platform-ready export pipeline: it fans a set of
// source images out across the requested platforms, resizing each image to
// the platform's dimensions and rendering its caption, then packages the
// results into one downloadable archive.
package export

import (
	"context"
	"errors"

	"github.com/lunahq/creator-export/internal/caption"
)

// SourceImage is one requested input. Exactly one of URL and S3Key must
// resolve; Caption optionally overrides the request-level template for this
// image.
type SourceImage struct {
	Filename string
	URL      string
	S3Key    string
	Caption  string
}

// Request describes one export run. The HTTP boundary validates and
// defaults all fields before a Request reaches the Runner.
type Request struct {
	Images          []SourceImage
	Platforms       []string
	CaptionTemplate string
	Variables       caption.Variables
	ExportName      string
	ModelName       string
	Quality         int    // 1-100
	Format          string // jpeg, png, or webp
	IncludeManifest bool
}

// Fetcher resolves a source image to its bytes. Fetching is the only
// network I/O in the pipeline; implementations must honor ctx so a request
// deadline turns unfinished items into ordinary per-item failures.
type Fetcher interface {
	Fetch(ctx context.Context, img SourceImage) ([]byte, error)
}

// ErrNoContent is returned when every item across every platform failed.
// Inputs were well formed; execution produced nothing to package.
var ErrNoContent = errors.New("no content processed")
