package media

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldworks/artifact-capture/entity"
)

// ImageSidecar is the JSON document written next to every attached image. It
// snapshots the record's field values and accumulated file lists at the
// moment of the attach, so a content directory stays interpretable even
// without the database.
type ImageSidecar struct {
	ObjectType string                 `json:"object_type"`
	RecordID   int64                  `json:"record_id"`
	ImageIndex int                    `json:"image_index"`
	Files      entity.DerivedImageSet `json:"files"`
	Values     map[string]any         `json:"values"`
	Exif       entity.ExifSummary     `json:"exif"`
	GPS        entity.GPSFix          `json:"gps"`
	Capture    entity.CaptureContext  `json:"capture"`
	Images     []string               `json:"images"`
	Thumbs     []string               `json:"thumbs"`
	Webps      []string               `json:"webps"`
	Sidecars   []string               `json:"json_files"`
	WrittenAt  string                 `json:"written_at"`
}

// WriteImageSidecar writes the per-image sidecar under the stem and returns
// its basename.
func (p *Processor) WriteImageSidecar(stem string, doc ImageSidecar) (string, error) {
	name := stem + ".json"
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.UploadDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}
	return name, nil
}

// WriteRecordSidecar overwrites the per-record sidecar with the record's
// current full state. Failures are reported but callers treat them as
// degradation, not as attach failures.
func (p *Processor) WriteRecordSidecar(rec *entity.Record) error {
	name := fmt.Sprintf("%s-%d.record.json", rec.OType, rec.ID)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.UploadDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write record sidecar: %w", err)
	}
	return nil
}
