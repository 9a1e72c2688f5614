package controller

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/infra/produce"
	"github.com/fieldworks/artifact-capture/media"
	"github.com/fieldworks/artifact-capture/schema"
	"github.com/fieldworks/artifact-capture/utils"
)

// Submission actions. The default is add_image: resolve the target record by
// session pointer or signature and append the photo to it.
const (
	ActionNew      = "new"
	ActionUpdate   = "update"
	ActionAddImage = "add_image"
)

var errGPSRequired = errors.New("GPS coordinates are required for this deployment")

// Submit is the capture endpoint: coerced metadata plus an optional photo.
// The action flag picks between forcing a fresh record, updating the session's
// current record, and attaching an image to the resolved record.
func (ctrl *Controller) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	action := c.PostForm("action")
	if action == "" {
		action = ActionAddImage
	}
	if action != ActionNew && action != ActionUpdate && action != ActionAddImage {
		utils.JSON400(c, "Invalid action: "+action)
		return
	}

	values := schema.Coerce(s, formValues(c), false)
	if missing := schema.MissingRequired(s, values); len(missing) > 0 {
		utils.JSON422(c, "Required fields are missing", missing)
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to read photo upload: %v", err)
		utils.JSON400(c, "Failed to read photo: "+err.Error())
		return
	}

	// decode and the GPS requirement run before the record is resolved or
	// created, so a rejected upload leaves no row behind
	var derived *media.Derived
	var gps entity.GPSFix
	if photo != nil {
		derived, err = ctrl.Processor.Process(photo)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to process image: %v", err)
			utils.JSON400(c, "Failed to process image: "+err.Error())
			return
		}
		gps, err = ctrl.resolveGPS(derived.GPS, clientGPS(c))
		if err != nil {
			utils.JSON400(c, err.Error())
			return
		}
	}

	signature := schema.Signature(s, values)
	sessionID := c.GetString("session_id")
	capture := captureContext(c)

	var rec *entity.Record
	created := false

	switch action {
	case ActionNew:
		// explicit new record always creates a fresh row, identical
		// signature or not
		id, err := ctrl.Repository.RecordRepo.Insert(s, values, signature, capture)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to create %s record: %v", s.OType, err)
			utils.JSON500(c, "Failed to create record")
			return
		}
		rec, err = ctrl.Repository.RecordRepo.FindByID(s, id)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to read back %s record %d: %v", s.OType, id, err)
			utils.JSON500(c, "Failed to read record")
			return
		}
		created = true

	case ActionUpdate:
		rec, err = ctrl.resolveRecord(ctx, s, sessionID, signature)
		if err != nil {
			utils.JSON500(c, "Failed to resolve record")
			return
		}
		if rec == nil {
			utils.JSON404(c, "No current record to update")
			return
		}
		if err := ctrl.Repository.RecordRepo.Update(s, rec.ID, values); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to update %s record %d: %v", s.OType, rec.ID, err)
			utils.JSON500(c, "Failed to update record")
			return
		}
		if err := ctrl.Repository.RecordRepo.UpdateSignature(s, rec.ID, signature); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to update signature on %s record %d: %v", s.OType, rec.ID, err)
			utils.JSON500(c, "Failed to update record")
			return
		}
		rec, err = ctrl.Repository.RecordRepo.FindByID(s, rec.ID)
		if err != nil {
			utils.JSON500(c, "Failed to read record")
			return
		}

	case ActionAddImage:
		rec, err = ctrl.resolveRecord(ctx, s, sessionID, signature)
		if err != nil {
			utils.JSON500(c, "Failed to resolve record")
			return
		}
		if rec == nil {
			id, err := ctrl.Repository.RecordRepo.Insert(s, values, signature, capture)
			if err != nil {
				ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to create %s record: %v", s.OType, err)
				utils.JSON500(c, "Failed to create record")
				return
			}
			rec, err = ctrl.Repository.RecordRepo.FindByID(s, id)
			if err != nil {
				utils.JSON500(c, "Failed to read record")
				return
			}
			created = true
		}
	}

	if sessionID != "" {
		if err := ctrl.Infra.Sessions.SetCurrentRecord(ctx, sessionID, s.OType, rec.ID); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Capture] Failed to save session pointer: %v", err)
		}
	}

	if derived != nil {
		if err := ctrl.attachDerived(ctx, s, rec, derived, gps, capture); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Failed to attach image to %s record %d: %v", s.OType, rec.ID, err)
			utils.JSON400(c, "Failed to process image: "+err.Error())
			return
		}
	}

	response := gin.H{"record": rec, "created": created}
	if created {
		utils.JSON201(c, response)
		return
	}
	utils.JSON200(c, response)
}

// resolveRecord applies the matching steps short of creation: the session's
// current-record pointer when its stored signature still matches, then the
// highest-id row with the same signature. Returns nil when neither matches.
func (ctrl *Controller) resolveRecord(ctx context.Context, s *entity.ObjectTypeSchema, sessionID, signature string) (*entity.Record, error) {
	if sessionID != "" {
		if id, ok := ctrl.Infra.Sessions.CurrentRecord(ctx, sessionID, s.OType); ok {
			rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
			if err == nil && rec.MetaSignature == signature {
				return rec, nil
			}
			// stale pointer (deleted record or changed metadata) falls
			// through to the signature lookup
		}
	}

	rec, err := ctrl.Repository.RecordRepo.FindLatestBySignature(s, signature)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Signature lookup failed for %s: %v", s.OType, err)
		return nil, err
	}
	return rec, nil
}

// attachPhoto runs the full pipeline against an already-resolved record. A
// decode or encode failure aborts before any record mutation; EXIF, WEBP,
// record-sidecar and mirror failures only degrade.
func (ctrl *Controller) attachPhoto(ctx context.Context, s *entity.ObjectTypeSchema, rec *entity.Record, raw []byte, client entity.GPSFix, capture entity.CaptureContext) error {
	d, err := ctrl.Processor.Process(raw)
	if err != nil {
		return err
	}
	gps, err := ctrl.resolveGPS(d.GPS, client)
	if err != nil {
		return err
	}
	return ctrl.attachDerived(ctx, s, rec, d, gps, capture)
}

// resolveGPS picks the image's EXIF fix, falling back to the coordinates the
// client posted when GPS capture is enabled. Errors when the deployment
// requires a fix and neither source has one.
func (ctrl *Controller) resolveGPS(exif, client entity.GPSFix) (entity.GPSFix, error) {
	gps := exif
	if !gps.Valid() && ctrl.Config.EnvConfig.Capture.GPSEnabled {
		gps = client
	}
	if ctrl.Config.EnvConfig.Capture.GPSRequired && !gps.Valid() {
		return gps, errGPSRequired
	}
	return gps, nil
}

// attachDerived writes the derived set out and persists the grown file lists.
func (ctrl *Controller) attachDerived(ctx context.Context, s *entity.ObjectTypeSchema, rec *entity.Record, d *media.Derived, gps entity.GPSFix, capture entity.CaptureContext) error {
	imageIndex := rec.ImageCount() + 1
	stem := media.RenderStem(s, rec.Values, rec.ID, imageIndex)

	set, err := ctrl.Processor.WriteSet(d, stem)
	if err != nil {
		return err
	}
	set.Sidecar = stem + ".json"

	rec.Images = append(rec.Images, set.Image)
	rec.Thumbs = append(rec.Thumbs, set.Thumb)
	// the webp slot is filled even when the encode failed, so the four
	// lists stay index-parallel
	rec.Webps = append(rec.Webps, set.Webp)
	rec.Sidecars = append(rec.Sidecars, set.Sidecar)
	rec.GPS = gps
	rec.Width = d.Width
	rec.Height = d.Height

	if _, err := ctrl.Processor.WriteImageSidecar(stem, media.ImageSidecar{
		ObjectType: s.OType,
		RecordID:   rec.ID,
		ImageIndex: imageIndex,
		Files:      set,
		Values:     rec.Values,
		Exif:       d.Exif,
		GPS:        gps,
		Capture:    capture,
		Images:     rec.Images,
		Thumbs:     rec.Thumbs,
		Webps:      rec.Webps,
		Sidecars:   rec.Sidecars,
		WrittenAt:  schema.NowTimestamp(),
	}); err != nil {
		return err
	}

	exifJSON, _ := json.Marshal(d.Exif)
	if err := ctrl.Repository.RecordRepo.SaveAttach(s, rec, string(exifJSON), capture); err != nil {
		return err
	}

	if err := ctrl.Processor.WriteRecordSidecar(rec); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Capture] Failed to write record sidecar for %s record %d: %v", s.OType, rec.ID, err)
	}

	ctrl.publishMirror(ctx, s.OType, rec.ID, []string{set.Image, set.Thumb, set.Webp, set.Sidecar})
	return nil
}

// publishMirror queues the new files for off-site replication, when the
// broker is configured. Failures never affect the submission.
func (ctrl *Controller) publishMirror(ctx context.Context, otype string, recordID int64, files []string) {
	if ctrl.Infra.Produce == nil {
		return
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			names = append(names, f)
		}
	}
	if len(names) == 0 {
		return
	}

	job, err := ctrl.Repository.MirrorJobRepo.Create(otype, recordID, names)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Mirror] Failed to create mirror job: %v", err)
		return
	}
	err = ctrl.Infra.Produce.PublishMediaMirror(ctx, produce.MediaMirrorMessage{
		JobID:      job.ID.String(),
		ObjectType: otype,
		RecordID:   recordID,
		Files:      names,
	})
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Mirror] Failed to publish mirror job %s: %v", job.ID, err)
	}
}

// publishMirrorDelete queues mirrored copies of removed files for deletion.
func (ctrl *Controller) publishMirrorDelete(ctx context.Context, otype string, recordID int64, files []string) {
	if ctrl.Infra.Produce == nil {
		return
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			names = append(names, f)
		}
	}
	if len(names) == 0 {
		return
	}

	err := ctrl.Infra.Produce.PublishMediaDelete(ctx, produce.MediaDeleteMessage{
		ObjectType: otype,
		RecordID:   recordID,
		Files:      names,
	})
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Mirror] Failed to publish mirror delete: %v", err)
	}
}

// existsCacheTTL is short: the check is advisory UI feedback and a stale
// negative only delays the duplicate warning by a few seconds.
const existsCacheTTL = 10 * time.Second

type existsResult struct {
	Exists bool           `json:"exists"`
	Record *entity.Record `json:"record,omitempty"`
}

// Exists answers whether a record matching the supplied non-empty field
// values already exists, without touching any state. Results are cached
// briefly in Redis when available; recorders poll this while filling forms.
func (ctrl *Controller) Exists(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	values := schema.Coerce(s, formValues(c), true)

	var cacheKey string
	if ctrl.Infra.Redis != nil {
		sum := sha256.Sum256([]byte(schema.Signature(s, values)))
		cacheKey = fmt.Sprintf("exists:%s:%x", s.OType, sum[:12])
		var cached existsResult
		if err := ctrl.Infra.Redis.Get(ctx, cacheKey, &cached); err == nil {
			utils.JSON200(c, cached)
			return
		}
	}

	rec, err := ctrl.Repository.RecordRepo.FindMatching(s, values)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Capture] Exists check failed for %s: %v", s.OType, err)
		utils.JSON500(c, "Failed to check record")
		return
	}

	result := existsResult{Exists: rec != nil, Record: rec}
	if cacheKey != "" {
		if err := ctrl.Infra.Redis.Set(ctx, cacheKey, result, existsCacheTTL); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Capture] Failed to cache exists result: %v", err)
		}
	}
	utils.JSON200(c, result)
}

func readPhoto(c *gin.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		// no photo on the submission is the common metadata-only case
		return nil, nil
	}
	return readMultipartFile(fileHeader)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
