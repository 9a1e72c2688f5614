package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/fieldworks/artifact-capture/entity"
)

// Processor turns an uploaded photo into the derived image set: an
// orientation-normalized, bounded main JPEG, a thumbnail and (best-effort) a
// WEBP encoding. It owns the bytes it writes into the content directory;
// callers only ever see filenames.
type Processor struct {
	UploadDir   string
	MaxDim      int
	ThumbDim    int
	JpegQuality int
	WebpQuality int
}

// Derived holds the encoded variants of one processed upload before they are
// written out. Webp is nil when the alternate encoding failed or was skipped.
type Derived struct {
	Jpeg   []byte
	Thumb  []byte
	Webp   []byte
	Width  int
	Height int
	Exif   entity.ExifSummary
	GPS    entity.GPSFix
}

// Process decodes and re-encodes an upload. A decode or JPEG encode failure
// is fatal for the submission; EXIF extraction and WEBP encoding degrade
// silently.
func (p *Processor) Process(raw []byte) (*Derived, error) {
	exifSummary, exifGPS := ExtractExif(raw)

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Bound the longer edge; never upscale a smaller source.
	b := img.Bounds()
	if p.MaxDim > 0 && (b.Dx() > p.MaxDim || b.Dy() > p.MaxDim) {
		img = imaging.Fit(img, p.MaxDim, p.MaxDim, imaging.Lanczos)
		b = img.Bounds()
	}

	out := &Derived{
		Width:  b.Dx(),
		Height: b.Dy(),
		Exif:   exifSummary,
		GPS:    exifGPS,
	}

	out.Jpeg, err = encodeJpeg(img, p.JpegQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	thumb := imaging.Fit(img, p.ThumbDim, p.ThumbDim, imaging.Lanczos)
	out.Thumb, err = encodeJpeg(thumb, 85)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	// WEBP is optional; a failed encode just omits the variant.
	var wb bytes.Buffer
	if err := webp.Encode(&wb, img, &webp.Options{Quality: float32(p.WebpQuality)}); err == nil {
		out.Webp = wb.Bytes()
	}

	return out, nil
}

// WriteSet writes the derived variants under the given stem and returns the
// basenames. The webp name is empty when the variant is absent.
func (p *Processor) WriteSet(d *Derived, stem string) (entity.DerivedImageSet, error) {
	if err := os.MkdirAll(p.UploadDir, 0o755); err != nil {
		return entity.DerivedImageSet{}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	set := entity.DerivedImageSet{
		Image: stem + ".jpg",
		Thumb: stem + ".thumb.jpg",
	}
	if err := os.WriteFile(filepath.Join(p.UploadDir, set.Image), d.Jpeg, 0o644); err != nil {
		return entity.DerivedImageSet{}, fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.UploadDir, set.Thumb), d.Thumb, 0o644); err != nil {
		return entity.DerivedImageSet{}, fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if len(d.Webp) > 0 {
		name := stem + ".webp"
		if err := os.WriteFile(filepath.Join(p.UploadDir, name), d.Webp, 0o644); err == nil {
			set.Webp = name
		}
	}
	return set, nil
}

// RemoveFiles deletes content-directory files by basename, best-effort. A
// missing file being "deleted" is not an error.
func (p *Processor) RemoveFiles(names []string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		// basenames only; reject anything that could leave the content dir
		if filepath.Base(name) != name {
			continue
		}
		_ = os.Remove(filepath.Join(p.UploadDir, name))
	}
}

func encodeJpeg(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
