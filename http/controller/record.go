package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/repository"
	"github.com/fieldworks/artifact-capture/schema"
	"github.com/fieldworks/artifact-capture/utils"
)

// ListRecords pages through an object type's records, newest first.
func (ctrl *Controller) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	perPage = repository.NormalizePerPage(perPage)
	q := c.Query("q")

	records, total, err := ctrl.Repository.RecordRepo.List(s, q, page, perPage)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to list %s records: %v", s.OType, err)
		utils.JSON500(c, "Failed to list records")
		return
	}

	utils.JSON200(c, gin.H{
		"records":  records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (ctrl *Controller) GetRecord(c *gin.Context) {
	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSON400(c, "Invalid record id")
		return
	}

	rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Record not found")
			return
		}
		utils.JSON500(c, "Failed to read record")
		return
	}
	utils.JSON200(c, rec)
}

// UpdateRecord edits a record's field values. Only the submitted columns
// change; the stored signature is recomputed from the merged state so
// subsequent photo submissions still resolve to this row.
func (ctrl *Controller) UpdateRecord(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSON400(c, "Invalid record id")
		return
	}

	rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Record not found")
			return
		}
		utils.JSON500(c, "Failed to read record")
		return
	}

	values := schema.Coerce(s, formValues(c), true)
	merged := make(map[string]any, len(rec.Values))
	for k, v := range rec.Values {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	if missing := schema.MissingRequired(s, merged); len(missing) > 0 {
		utils.JSON422(c, "Required fields are missing", missing)
		return
	}

	if err := ctrl.Repository.RecordRepo.Update(s, id, values); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to update %s record %d: %v", s.OType, id, err)
		utils.JSON500(c, "Failed to update record")
		return
	}
	if err := ctrl.Repository.RecordRepo.UpdateSignature(s, id, schema.Signature(s, merged)); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to update signature on %s record %d: %v", s.OType, id, err)
		utils.JSON500(c, "Failed to update record")
		return
	}

	rec, err = ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		utils.JSON500(c, "Failed to read record")
		return
	}
	utils.JSON200(c, rec)
}

// DeleteRecord removes a record and every derived file it references. Files
// go first: a failure after file deletion leaves a row without files, never
// orphaned files without a row.
func (ctrl *Controller) DeleteRecord(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSON400(c, "Invalid record id")
		return
	}

	rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Record not found")
			return
		}
		utils.JSON500(c, "Failed to read record")
		return
	}

	var files []string
	files = append(files, rec.Images...)
	files = append(files, rec.Thumbs...)
	files = append(files, rec.Webps...)
	files = append(files, rec.Sidecars...)
	files = append(files, fmt.Sprintf("%s-%d.record.json", s.OType, rec.ID))
	ctrl.Processor.RemoveFiles(files)

	if err := ctrl.Repository.RecordRepo.DeleteRow(s, id); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to delete %s record %d: %v", s.OType, id, err)
		utils.JSON500(c, "Failed to delete record")
		return
	}

	ctrl.publishMirrorDelete(ctx, s.OType, id, files)
	utils.JSON200(c, gin.H{"deleted": id})
}

// AttachToRecord appends a photo to an explicitly addressed record, outside
// the session/signature matching flow.
func (ctrl *Controller) AttachToRecord(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSON400(c, "Invalid record id")
		return
	}

	rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Record not found")
			return
		}
		utils.JSON500(c, "Failed to read record")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		utils.JSON400(c, "A photo file is required")
		return
	}
	raw, err := readMultipartFile(fileHeader)
	if err != nil {
		utils.JSON400(c, "Failed to read photo: "+err.Error())
		return
	}

	if err := ctrl.attachPhoto(ctx, s, rec, raw, clientGPS(c), captureContext(c)); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to attach image to %s record %d: %v", s.OType, id, err)
		utils.JSON400(c, "Failed to process image: "+err.Error())
		return
	}
	utils.JSON200(c, rec)
}

// DetachImage removes one attached image (and its thumb, webp and sidecar)
// from a record by list index.
func (ctrl *Controller) DetachImage(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSON400(c, "Invalid record id")
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		utils.JSON400(c, "Invalid image index")
		return
	}

	rec, err := ctrl.Repository.RecordRepo.FindByID(s, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Record not found")
			return
		}
		utils.JSON500(c, "Failed to read record")
		return
	}

	if idx < 0 || idx >= rec.ImageCount() {
		utils.JSON400(c, fmt.Sprintf("Image index %d out of range (record has %d images)", idx, rec.ImageCount()))
		return
	}

	// lists are normally index-parallel, but hand-edited or legacy rows can
	// be ragged; each one is bounds-checked on its own
	var removed []string
	for _, list := range [][]string{rec.Images, rec.Thumbs, rec.Webps, rec.Sidecars} {
		if idx < len(list) {
			removed = append(removed, list[idx])
		}
	}
	rec.Images = removeAt(rec.Images, idx)
	rec.Thumbs = removeAt(rec.Thumbs, idx)
	rec.Webps = removeAt(rec.Webps, idx)
	rec.Sidecars = removeAt(rec.Sidecars, idx)

	ctrl.Processor.RemoveFiles(removed)
	if err := ctrl.Repository.RecordRepo.SaveFileLists(s, rec); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Record] Failed to save file lists on %s record %d: %v", s.OType, id, err)
		utils.JSON500(c, "Failed to update record")
		return
	}

	if err := ctrl.Processor.WriteRecordSidecar(rec); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Record] Failed to refresh record sidecar for %s record %d: %v", s.OType, id, err)
	}

	ctrl.publishMirrorDelete(ctx, s.OType, id, removed)
	utils.JSON200(c, rec)
}

func removeAt(list []string, idx int) []string {
	if idx < 0 || idx >= len(list) {
		return list
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

// ListTypes returns the object-type catalog for form builders.
func (ctrl *Controller) ListTypes(c *gin.Context) {
	types := make([]*entity.ObjectTypeSchema, 0, len(ctrl.Config.Schema.Order))
	for _, otype := range ctrl.Config.Schema.Order {
		types = append(types, ctrl.Config.Schema.Types[otype])
	}
	utils.JSON200(c, gin.H{
		"types":   types,
		"default": ctrl.Config.Schema.DefaultType(),
	})
}
