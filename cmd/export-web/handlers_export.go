package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lunahq/creator-export/internal/caption"
	"github.com/lunahq/creator-export/internal/export"
	"github.com/lunahq/creator-export/internal/platform"
	"github.com/lunahq/creator-export/internal/transcode"
)

type server struct {
	runner *export.Runner
}

// exportImage is one entry of the request's images array.
type exportImage struct {
	URL      string `json:"url,omitempty"`
	S3Key    string `json:"s3Key,omitempty"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

// exportRequest is the POST /api/export body. Pointer fields distinguish
// "omitted" from zero values so defaults apply only when absent.
type exportRequest struct {
	Images          []exportImage          `json:"images"`
	Platforms       []string               `json:"platforms"`
	CaptionTemplate string                 `json:"captionTemplate,omitempty"`
	Variables       map[string]interface{} `json:"variables,omitempty"`
	ExportName      string                 `json:"exportName,omitempty"`
	ModelName       string                 `json:"modelName,omitempty"`
	ImageQuality    *int                   `json:"imageQuality,omitempty"`
	ImageFormat     string                 `json:"imageFormat,omitempty"`
	IncludeManifest *bool                  `json:"includeManifest,omitempty"`
}

// toExport applies defaults and converts to the pipeline request type.
func (req *exportRequest) toExport() export.Request {
	quality := 85
	if req.ImageQuality != nil {
		quality = *req.ImageQuality
	}
	format := req.ImageFormat
	if format == "" {
		format = transcode.FormatJPEG
	}
	includeManifest := true
	if req.IncludeManifest != nil {
		includeManifest = *req.IncludeManifest
	}

	images := make([]export.SourceImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, export.SourceImage{
			Filename: img.Filename,
			URL:      img.URL,
			S3Key:    img.S3Key,
			Caption:  img.Caption,
		})
	}

	return export.Request{
		Images:          images,
		Platforms:       req.Platforms,
		CaptionTemplate: req.CaptionTemplate,
		Variables:       caption.Variables(req.Variables),
		ExportName:      req.ExportName,
		ModelName:       req.ModelName,
		Quality:         quality,
		Format:          format,
		IncludeManifest: includeManifest,
	}
}

// POST /api/export
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body exportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if details := validateExportRequest(&body); len(details) > 0 {
		httpErrorDetails(w, http.StatusBadRequest, "invalid export request", details)
		return
	}

	arch, err := s.runner.Run(r.Context(), body.toExport())
	if err != nil {
		var cfgErr *transcode.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			httpError(w, http.StatusBadRequest, cfgErr.Error())
		case errors.Is(err, export.ErrNoContent):
			httpError(w, http.StatusUnprocessableEntity, "no content processed")
		default:
			log.Error().Err(err).Msg("Export failed")
			httpError(w, http.StatusInternalServerError, "export failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, arch.Filename))
	w.Header().Set("X-Export-File-Count", strconv.Itoa(arch.FileCount))
	w.Header().Set("X-Export-Total-Bytes", strconv.FormatInt(arch.TotalBytes, 10))
	w.Header().Set("X-Export-Platforms", strings.Join(arch.Platforms, ","))
	w.Write(arch.Data)
}

// GET /api/export/platforms
//
// Read-only projection of the platform registry plus the recognized caption
// variables, for UI consumption. Carries no pipeline logic.
func (s *server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"platforms":        platform.All(),
		"captionVariables": caption.KnownVariables(),
	})
}
