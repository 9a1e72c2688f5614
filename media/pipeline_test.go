package media

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/artifact-capture/entity"
)

func testJpeg(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	return &Processor{
		UploadDir:   t.TempDir(),
		MaxDim:      200,
		ThumbDim:    50,
		JpegQuality: 90,
		WebpQuality: 80,
	}
}

func TestProcessBoundsLargeImages(t *testing.T) {
	p := testProcessor(t)

	d, err := p.Process(testJpeg(t, 400, 300))
	require.NoError(t, err)

	assert.Equal(t, 200, d.Width)
	assert.Equal(t, 150, d.Height)
	assert.NotEmpty(t, d.Jpeg)
	assert.NotEmpty(t, d.Thumb)
}

func TestProcessNeverUpscales(t *testing.T) {
	p := testProcessor(t)

	d, err := p.Process(testJpeg(t, 120, 80))
	require.NoError(t, err)

	assert.Equal(t, 120, d.Width)
	assert.Equal(t, 80, d.Height)
}

func TestProcessRejectsUndecodableInput(t *testing.T) {
	p := testProcessor(t)

	_, err := p.Process([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestWriteSetProducesDerivedFamily(t *testing.T) {
	p := testProcessor(t)

	d, err := p.Process(testJpeg(t, 400, 300))
	require.NoError(t, err)

	set, err := p.WriteSet(d, "BAG_TAP86_ID1_IMG1")
	require.NoError(t, err)

	assert.Equal(t, "BAG_TAP86_ID1_IMG1.jpg", set.Image)
	assert.Equal(t, "BAG_TAP86_ID1_IMG1.thumb.jpg", set.Thumb)
	for _, name := range []string{set.Image, set.Thumb} {
		_, err := os.Stat(filepath.Join(p.UploadDir, name))
		assert.NoError(t, err, "expected %s on disk", name)
	}
	if set.Webp != "" {
		_, err := os.Stat(filepath.Join(p.UploadDir, set.Webp))
		assert.NoError(t, err)
	}
}

func TestWriteImageSidecar(t *testing.T) {
	p := testProcessor(t)

	name, err := p.WriteImageSidecar("BAG_ID1_IMG1", ImageSidecar{
		ObjectType: "bags",
		RecordID:   1,
		ImageIndex: 1,
		Values:     map[string]any{"season": "TAP86"},
		Images:     []string{"BAG_ID1_IMG1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "BAG_ID1_IMG1.json", name)

	data, err := os.ReadFile(filepath.Join(p.UploadDir, name))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "bags", doc["object_type"])
}

func TestWriteRecordSidecarOverwrites(t *testing.T) {
	p := testProcessor(t)

	rec := &entity.Record{ID: 4, OType: "bags", Values: map[string]any{"season": "TAP86"}}
	require.NoError(t, p.WriteRecordSidecar(rec))

	rec.Images = []string{"BAG_ID4_IMG1.jpg"}
	require.NoError(t, p.WriteRecordSidecar(rec))

	data, err := os.ReadFile(filepath.Join(p.UploadDir, "bags-4.record.json"))
	require.NoError(t, err)
	var doc entity.Record
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"BAG_ID4_IMG1.jpg"}, doc.Images)
}

func TestRemoveFilesSkipsPathEscapes(t *testing.T) {
	p := testProcessor(t)

	victim := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep me"), 0o644))

	inside := filepath.Join(p.UploadDir, "gone.jpg")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o644))

	p.RemoveFiles([]string{"gone.jpg", "", "../" + filepath.Base(victim), victim})

	_, err := os.Stat(inside)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(victim)
	assert.NoError(t, err)
}
