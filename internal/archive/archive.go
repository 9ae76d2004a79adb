// Package archive serializes per-platform export items into a single ZIP
// with a folder per platform. Each image is paired with a sibling .txt file
// holding its caption, so the two are discoverable together by a human
// unzipping the archive; the optional root manifest is the machine-readable
// index for downstream tooling.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog/log"
)

// Item is one fully processed output unit for a single platform.
type Item struct {
	Filename string
	Data     []byte
	MIMEType string
	Caption  string
	TakenAt  time.Time // zero when the source carried no capture timestamp
}

// Folder is the item list produced for one platform.
type Folder struct {
	Platform string // platform id
	Name     string // folder name inside the archive
	Items    []Item
}

// Archive is the final packaged export.
type Archive struct {
	Data       []byte
	Filename   string
	FileCount  int
	TotalBytes int64
	Platforms  []string
}

// Builder accumulates ZIP entries in memory. It is single-writer: callers
// serialize access themselves if they process items concurrently. Close is
// idempotent so a defer always releases the writer, even after a failed
// entry write.
type Builder struct {
	buf     bytes.Buffer
	zw      *zip.Writer
	modTime time.Time
	count   int
	written int64
	closed  bool
}

// NewBuilder opens a builder. All entries share modTime so archive bytes are
// deterministic given the same inputs and timestamp.
func NewBuilder(modTime time.Time) *Builder {
	b := &Builder{modTime: modTime}
	b.zw = zip.NewWriter(&b.buf)
	// klauspost's deflate is substantially faster than the stdlib's at the
	// same method id, and any unzip tool can still read the result.
	b.zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
	return b
}

// AddFile writes one entry under folder ("" for the archive root).
func (b *Builder) AddFile(folder, name string, data []byte) error {
	hdr := &zip.FileHeader{
		Name:     path.Join(folder, name),
		Method:   zip.Deflate,
		Modified: b.modTime,
	}
	w, err := b.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", hdr.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", hdr.Name, err)
	}
	b.count++
	b.written += int64(len(data))
	return nil
}

// Close finalizes the ZIP central directory. Safe to call more than once.
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.zw.Close()
}

// Manifest is the machine-readable index written to the archive root.
type Manifest struct {
	ExportName  string             `json:"exportName"`
	ModelName   string             `json:"modelName,omitempty"`
	ExportID    string             `json:"exportId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Platforms   []ManifestPlatform `json:"platforms"`
}

// ManifestPlatform lists the files packaged for one platform.
type ManifestPlatform struct {
	Platform string         `json:"platform"`
	Folder   string         `json:"folder"`
	Files    []ManifestFile `json:"files"`
}

// ManifestFile describes one packaged image and its caption.
type ManifestFile struct {
	Filename    string     `json:"filename"`
	CaptionFile string     `json:"captionFile"`
	Caption     string     `json:"caption"`
	Size        int        `json:"size"`
	MIMEType    string     `json:"mimeType"`
	TakenAt     *time.Time `json:"takenAt,omitempty"`
}

// ManifestFilename is the name of the index document at the archive root.
const ManifestFilename = "export-manifest.json"

// Pack serializes the folders into one ZIP. Folders with no items are
// skipped entirely rather than left as empty directories. The returned
// Archive.Platforms preserves folder order.
func Pack(exportName, modelName, exportID string, folders []Folder, includeManifest bool, now time.Time) (*Archive, error) {
	b := NewBuilder(now)
	defer b.Close()

	man := Manifest{
		ExportName:  exportName,
		ModelName:   modelName,
		ExportID:    exportID,
		GeneratedAt: now,
	}
	var platforms []string

	for _, f := range folders {
		if len(f.Items) == 0 {
			continue
		}
		mp := ManifestPlatform{Platform: f.Platform, Folder: f.Name}
		for _, it := range f.Items {
			if err := b.AddFile(f.Name, it.Filename, it.Data); err != nil {
				return nil, err
			}
			captionFile := baseName(it.Filename) + ".txt"
			if err := b.AddFile(f.Name, captionFile, []byte(it.Caption)); err != nil {
				return nil, err
			}
			mf := ManifestFile{
				Filename:    it.Filename,
				CaptionFile: captionFile,
				Caption:     it.Caption,
				Size:        len(it.Data),
				MIMEType:    it.MIMEType,
			}
			if !it.TakenAt.IsZero() {
				t := it.TakenAt
				mf.TakenAt = &t
			}
			mp.Files = append(mp.Files, mf)
		}
		platforms = append(platforms, f.Platform)
		man.Platforms = append(man.Platforms, mp)
	}

	if includeManifest {
		data, err := json.MarshalIndent(man, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal manifest: %w", err)
		}
		if err := b.AddFile("", ManifestFilename, data); err != nil {
			return nil, err
		}
	}

	if err := b.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	arch := &Archive{
		Data:       b.buf.Bytes(),
		Filename:   ArchiveName(exportName, now),
		FileCount:  b.count,
		TotalBytes: b.written,
		Platforms:  platforms,
	}
	log.Debug().
		Str("archive", arch.Filename).
		Int("files", arch.FileCount).
		Int64("bytes", arch.TotalBytes).
		Msg("Archive packed")
	return arch, nil
}

// ArchiveName derives the download filename from the export name and a date
// marker: <sanitized-name>-YYYY-MM-DD.zip.
func ArchiveName(exportName string, now time.Time) string {
	return fmt.Sprintf("%s-%s.zip", sanitizeName(exportName), now.Format("2006-01-02"))
}

// sanitizeName cleans a display name for use in filenames.
func sanitizeName(name string) string {
	if name == "" {
		name = "export"
	}
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == ' ' {
			return r
		}
		return '-'
	}, name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return strings.ReplaceAll(name, " ", "-")
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}
