package main

import (
	"fmt"

	"github.com/lunahq/creator-export/internal/transcode"
)

// validateExportRequest checks the decoded body before any processing
// starts. The returned map is field path -> problem; empty means valid.
func validateExportRequest(req *exportRequest) map[string]string {
	details := map[string]string{}

	if len(req.Images) == 0 {
		details["images"] = "at least one image is required"
	}
	for i, img := range req.Images {
		field := fmt.Sprintf("images[%d]", i)
		if img.Filename == "" {
			details[field+".filename"] = "filename is required"
		}
		switch {
		case img.URL == "" && img.S3Key == "":
			details[field] = "exactly one of url or s3Key is required"
		case img.URL != "" && img.S3Key != "":
			details[field] = "url and s3Key are mutually exclusive"
		}
	}

	if len(req.Platforms) == 0 {
		details["platforms"] = "at least one platform is required"
	}

	if req.ImageQuality != nil && (*req.ImageQuality < 1 || *req.ImageQuality > 100) {
		details["imageQuality"] = "must be between 1 and 100"
	}
	if req.ImageFormat != "" {
		if err := transcode.CheckFormat(req.ImageFormat); err != nil {
			details["imageFormat"] = err.Error()
		}
	}

	// JSON numbers decode as float64; anything else scalar-wise is a string.
	for name, v := range req.Variables {
		switch v.(type) {
		case string, float64, nil:
		default:
			details["variables."+name] = "must be a string or number"
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
