package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/schema"
)

// RecordRepository is the store behind the capture tables. Each object type
// has its own table, named after the type; the schema's validated column
// names are the only identifiers ever interpolated into SQL.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// allowedPerPage mirrors the page-size choices the record browser offers.
var allowedPerPage = map[int]bool{10: true, 25: true, 50: true, 100: true, 300: true}

// NormalizePerPage clamps an arbitrary page size to the allowed set.
func NormalizePerPage(perPage int) int {
	if allowedPerPage[perPage] {
		return perPage
	}
	return 25
}

// Insert creates a fresh record from coerced field values. File lists start
// empty and date_last_saved is stamped with the server clock. Returns the new
// row id.
func (r *RecordRepository) Insert(s *entity.ObjectTypeSchema, values map[string]any, signature string, capture entity.CaptureContext) (int64, error) {
	cols := []string{entity.ColMetaSignature, entity.ColImages, entity.ColThumbs, entity.ColWebps, entity.ColSidecars,
		entity.ColClientIP, entity.ColUserAgent, entity.ColLastSaved}
	args := []any{signature, "[]", "[]", "[]", "[]",
		capture.ClientIP, capture.UserAgent, schema.NowTimestamp()}

	for i := range s.Fields {
		col := s.Fields[i].Column
		if entity.SystemColumns[col] {
			continue
		}
		v, ok := values[col]
		if !ok {
			continue
		}
		cols = append(cols, col)
		args = append(args, v)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
		marks[i] = "?"
	}

	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s) RETURNING id",
		s.OType, strings.Join(quoted, ", "), strings.Join(marks, ", "))

	var id int64
	if err := r.db.Raw(query, args...).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("failed to insert %s record: %w", s.OType, err)
	}
	return id, nil
}

// Update overwrites the supplied field values on an existing record and
// stamps date_last_saved. Columns not present in values are left alone.
func (r *RecordRepository) Update(s *entity.ObjectTypeSchema, id int64, values map[string]any) error {
	updates := map[string]any{entity.ColLastSaved: schema.NowTimestamp()}
	for i := range s.Fields {
		col := s.Fields[i].Column
		if entity.SystemColumns[col] {
			continue
		}
		if v, ok := values[col]; ok {
			updates[col] = v
		}
	}

	result := r.db.Table(s.OType).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s record %d: %w", s.OType, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSignature rewrites the stored signature after a field edit.
func (r *RecordRepository) UpdateSignature(s *entity.ObjectTypeSchema, id int64, signature string) error {
	return r.db.Table(s.OType).Where("id = ?", id).
		Update(entity.ColMetaSignature, signature).Error
}

func (r *RecordRepository) FindByID(s *entity.ObjectTypeSchema, id int64) (*entity.Record, error) {
	var row map[string]any
	err := r.db.Table(s.OType).Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	return rowToRecord(s, row), nil
}

// FindLatestBySignature resolves a submission to its open record: the
// highest-id row carrying the same metadata signature. Returns (nil, nil)
// when no row matches.
func (r *RecordRepository) FindLatestBySignature(s *entity.ObjectTypeSchema, signature string) (*entity.Record, error) {
	var rows []map[string]any
	err := r.db.Table(s.OType).
		Where(fmt.Sprintf("%q = ?", entity.ColMetaSignature), signature).
		Order("id DESC").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRecord(s, rows[0]), nil
}

// FindMatching answers the exists-check: the latest record whose columns
// equal every non-empty supplied value. Empty or nil values do not
// constrain the match, and neither do server-managed timestamps, which
// the coercer stamps with the submission clock on every call. Returns
// (nil, nil) when nothing matches.
func (r *RecordRepository) FindMatching(s *entity.ObjectTypeSchema, values map[string]any) (*entity.Record, error) {
	query := r.db.Table(s.OType)
	constrained := false
	for i := range s.Fields {
		col := s.Fields[i].Column
		if entity.SystemColumns[col] || s.Fields[i].ServerManaged {
			continue
		}
		v, ok := values[col]
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr && str == "" {
			continue
		}
		query = query.Where(fmt.Sprintf("%q = ?", col), v)
		constrained = true
	}
	if !constrained {
		return nil, nil
	}

	var rows []map[string]any
	if err := query.Order("id DESC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRecord(s, rows[0]), nil
}

// List returns one page of records, newest first, with the total count before
// paging. A non-empty q substring-matches against the id and every schema
// field column.
func (r *RecordRepository) List(s *entity.ObjectTypeSchema, q string, page, perPage int) ([]entity.Record, int64, error) {
	perPage = NormalizePerPage(perPage)
	if page < 1 {
		page = 1
	}

	query := r.db.Table(s.OType)
	if q != "" {
		var clauses []string
		var args []any
		pattern := "%" + q + "%"
		clauses = append(clauses, "CAST(id AS TEXT) LIKE ?")
		args = append(args, pattern)
		for i := range s.Fields {
			col := s.Fields[i].Column
			if entity.SystemColumns[col] {
				continue
			}
			clauses = append(clauses, fmt.Sprintf("CAST(%q AS TEXT) LIKE ?", col))
			args = append(args, pattern)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s records: %w", s.OType, err)
	}

	var rows []map[string]any
	err := query.Order("id DESC").Limit(perPage).Offset((page - 1) * perPage).Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s records: %w", s.OType, err)
	}

	records := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, *rowToRecord(s, row))
	}
	return records, total, nil
}

// All returns every record of the object type in id order, for exports.
func (r *RecordRepository) All(s *entity.ObjectTypeSchema) ([]entity.Record, error) {
	var rows []map[string]any
	if err := r.db.Table(s.OType).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s records: %w", s.OType, err)
	}
	records := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, *rowToRecord(s, row))
	}
	return records, nil
}

// SaveAttach persists the state after an image attach: the four file lists,
// the capture geometry and metadata, and a fresh date_last_saved. The
// record's in-memory DateLastSaved is updated to match.
func (r *RecordRepository) SaveAttach(s *entity.ObjectTypeSchema, rec *entity.Record, exifJSON string, capture entity.CaptureContext) error {
	now := schema.NowTimestamp()
	updates := map[string]any{
		entity.ColImages:      mustJSON(rec.Images),
		entity.ColThumbs:      mustJSON(rec.Thumbs),
		entity.ColWebps:       mustJSON(rec.Webps),
		entity.ColSidecars:    mustJSON(rec.Sidecars),
		entity.ColExifSummary: exifJSON,
		entity.ColClientIP:    capture.ClientIP,
		entity.ColUserAgent:   capture.UserAgent,
		entity.ColLastSaved:   now,
	}
	if rec.GPS.Lat != nil {
		updates[entity.ColGPSLat] = *rec.GPS.Lat
	}
	if rec.GPS.Lon != nil {
		updates[entity.ColGPSLon] = *rec.GPS.Lon
	}
	if rec.GPS.Alt != nil {
		updates[entity.ColGPSAlt] = *rec.GPS.Alt
	}
	if rec.GPS.Acc != nil {
		updates[entity.ColGPSAcc] = *rec.GPS.Acc
	}
	if rec.Width > 0 {
		updates[entity.ColWidth] = rec.Width
	}
	if rec.Height > 0 {
		updates[entity.ColHeight] = rec.Height
	}

	err := r.db.Table(s.OType).Where("id = ?", rec.ID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to save attach on %s record %d: %w", s.OType, rec.ID, err)
	}
	rec.DateLastSaved = now
	return nil
}

// SaveFileLists persists just the four file-list columns, used after a detach
// has shrunk the in-memory lists.
func (r *RecordRepository) SaveFileLists(s *entity.ObjectTypeSchema, rec *entity.Record) error {
	now := schema.NowTimestamp()
	err := r.db.Table(s.OType).Where("id = ?", rec.ID).Updates(map[string]any{
		entity.ColImages:    mustJSON(rec.Images),
		entity.ColThumbs:    mustJSON(rec.Thumbs),
		entity.ColWebps:     mustJSON(rec.Webps),
		entity.ColSidecars:  mustJSON(rec.Sidecars),
		entity.ColLastSaved: now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to save file lists on %s record %d: %w", s.OType, rec.ID, err)
	}
	rec.DateLastSaved = now
	return nil
}

// DeleteRow removes the database row only. Callers delete the derived files
// first, so a failure here leaves a row whose files are gone rather than
// orphaned files no row references.
func (r *RecordRepository) DeleteRow(s *entity.ObjectTypeSchema, id int64) error {
	result := r.db.Exec(fmt.Sprintf("DELETE FROM %q WHERE id = ?", s.OType), id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s record %d: %w", s.OType, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func mustJSON(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// rowToRecord maps a raw row onto the record shape: schema columns into
// Values, system columns into their typed attributes.
func rowToRecord(s *entity.ObjectTypeSchema, row map[string]any) *entity.Record {
	rec := &entity.Record{
		OType:  s.OType,
		Values: make(map[string]any, len(s.Fields)),
	}

	rec.ID = asInt64(row[entity.ColID])
	rec.MetaSignature = asString(row[entity.ColMetaSignature])
	rec.Images = asStringList(row[entity.ColImages])
	rec.Thumbs = asStringList(row[entity.ColThumbs])
	rec.Webps = asStringList(row[entity.ColWebps])
	rec.Sidecars = asStringList(row[entity.ColSidecars])
	rec.GPS = entity.GPSFix{
		Lat: asFloatPtr(row[entity.ColGPSLat]),
		Lon: asFloatPtr(row[entity.ColGPSLon]),
		Alt: asFloatPtr(row[entity.ColGPSAlt]),
		Acc: asFloatPtr(row[entity.ColGPSAcc]),
	}
	rec.Width = int(asInt64(row[entity.ColWidth]))
	rec.Height = int(asInt64(row[entity.ColHeight]))
	rec.DateLastSaved = asString(row[entity.ColLastSaved])

	for i := range s.Fields {
		col := s.Fields[i].Column
		if entity.SystemColumns[col] {
			continue
		}
		rec.Values[col] = normalizeCell(s.Fields[i].Kind, row[col])
	}

	return rec
}

// normalizeCell converts driver-specific cell types to the value shapes the
// rest of the system works with: numbers as int64/float64, everything else as
// string, NULL as nil.
func normalizeCell(kind entity.FieldKind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case entity.FieldInt:
		return asInt64(v)
	case entity.FieldFloat:
		if p := asFloatPtr(v); p != nil {
			return *p
		}
		return nil
	default:
		return asString(v)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func asStringList(v any) []string {
	raw := asString(v)
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}
