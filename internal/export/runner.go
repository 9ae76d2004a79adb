package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lunahq/creator-export/internal/archive"
	"github.com/lunahq/creator-export/internal/caption"
	"github.com/lunahq/creator-export/internal/platform"
	"github.com/lunahq/creator-export/internal/transcode"
)

// Runner executes export requests against a source fetcher.
type Runner struct {
	Fetch Fetcher
}

// Run processes req and returns the packaged archive.
//
// Platforms are processed in request order, images in input order within
// each platform. Per-item failures (fetch, decode, caption) are logged and
// dropped without aborting siblings; unknown platform ids and platforms
// yielding zero items are omitted from the archive. Run fails only on a
// configuration error (checked before any processing) or when no item at
// all succeeded.
func (r *Runner) Run(ctx context.Context, req Request) (*archive.Archive, error) {
	if err := transcode.CheckFormat(req.Format); err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	logger := log.With().Str("export", exportID).Logger()
	logger.Info().
		Int("images", len(req.Images)).
		Strs("platforms", req.Platforms).
		Str("format", req.Format).
		Msg("Export started")

	var folders []archive.Folder
	for _, pid := range req.Platforms {
		spec, ok := platform.SpecFor(platform.ID(pid))
		if !ok {
			logger.Warn().Str("platform", pid).Msg("Unknown platform id, skipping")
			continue
		}

		folder := archive.Folder{Platform: string(spec.ID), Name: spec.FolderName}
		for _, img := range req.Images {
			item, err := r.processItem(ctx, img, spec, req, logger)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("platform", string(spec.ID)).
					Str("image", img.Filename).
					Msg("Item failed, skipping")
				continue
			}
			folder.Items = append(folder.Items, *item)
		}

		if len(folder.Items) == 0 {
			logger.Warn().Str("platform", string(spec.ID)).Msg("Platform produced no items, omitting")
			continue
		}
		folders = append(folders, folder)
	}

	if len(folders) == 0 {
		return nil, ErrNoContent
	}

	arch, err := archive.Pack(req.ExportName, req.ModelName, exportID, folders, req.IncludeManifest, time.Now())
	if err != nil {
		return nil, fmt.Errorf("pack archive: %w", err)
	}

	logger.Info().
		Int("files", arch.FileCount).
		Int64("bytes", arch.TotalBytes).
		Strs("platforms", arch.Platforms).
		Msg("Export complete")
	return arch, nil
}

// processItem handles one (image, platform) pair: fetch, resize, caption.
// Each platform variant is fetched and decoded independently so one bad
// unit stays local to itself.
func (r *Runner) processItem(ctx context.Context, img SourceImage, spec platform.Spec, req Request, logger zerolog.Logger) (*archive.Item, error) {
	src, err := r.Fetch.Fetch(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}

	out, err := transcode.Resize(src, transcode.Options{
		Width:    spec.Width,
		Height:   spec.Height,
		Format:   req.Format,
		Quality:  req.Quality,
		Position: transcode.PositionAttention,
	})
	if err != nil {
		return nil, err
	}

	text := renderCaption(img, spec, req)
	for _, w := range text.Warnings {
		logger.Debug().
			Str("platform", string(spec.ID)).
			Str("image", img.Filename).
			Str("warning", w).
			Msg("Caption adjusted")
	}

	return &archive.Item{
		Filename: outputName(img.Filename, req.Format),
		Data:     out.Data,
		MIMEType: out.MIMEType,
		Caption:  text.Text,
		TakenAt:  captureTime(src),
	}, nil
}

// renderCaption picks the effective template (per-image caption wins over
// the request template) and formats it with the platform variable forced to
// the current target, even if the caller supplied one.
func renderCaption(img SourceImage, spec platform.Spec, req Request) caption.Result {
	template := req.CaptionTemplate
	if img.Caption != "" {
		template = img.Caption
	}

	vars := make(caption.Variables, len(req.Variables)+1)
	for k, v := range req.Variables {
		vars[k] = v
	}
	vars["platform"] = spec.DisplayName

	return caption.Format(template, vars, caption.Options{
		Platform:             spec,
		Truncate:             true,
		EnforceHashtagLimit:  true,
		RemoveEmptyVariables: true,
	})
}

// captureTime extracts the EXIF capture timestamp from the source bytes for
// the manifest. Best effort: screenshots and re-encoded images usually have
// none, and a parse failure is not an item failure.
func captureTime(src []byte) time.Time {
	meta, err := imagemeta.Decode(bytes.NewReader(src))
	if err != nil {
		return time.Time{}
	}
	if t := meta.DateTimeOriginal(); !t.IsZero() {
		return t
	}
	return meta.CreateDate()
}

// outputName derives the archive filename for one item from the source
// filename and the output format.
func outputName(filename, format string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" {
		base = "image"
	}
	return base + "." + transcode.Extension(format)
}
