package repository

import (
	"fmt"
	"strings"

	"github.com/fieldworks/artifact-capture/entity"
)

// systemColumnDecls are the fixed columns every record table carries, in
// DDL order. GPS and file-list columns always exist regardless of whether
// GPS capture is enabled, so databases stay portable between configurations.
var systemColumnDecls = []struct {
	name string
	typ  string
}{
	{entity.ColMetaSignature, "TEXT"},
	{entity.ColImages, "TEXT"},
	{entity.ColThumbs, "TEXT"},
	{entity.ColWebps, "TEXT"},
	{entity.ColSidecars, "TEXT"},
	{entity.ColGPSLat, "REAL"},
	{entity.ColGPSLon, "REAL"},
	{entity.ColGPSAlt, "REAL"},
	{entity.ColGPSAcc, "REAL"},
	{entity.ColWidth, "INTEGER"},
	{entity.ColHeight, "INTEGER"},
	{entity.ColExifSummary, "TEXT"},
	{entity.ColClientIP, "TEXT"},
	{entity.ColUserAgent, "TEXT"},
	{entity.ColLastSaved, "TEXT"},
}

func columnType(kind entity.FieldKind) string {
	switch kind {
	case entity.FieldInt:
		return "INTEGER"
	case entity.FieldFloat:
		return "REAL"
	default:
		// dates, timestamps, constants, uppercase and multi-select values
		// are all stored as text
		return "TEXT"
	}
}

// Migrate ensures the object type's table exists with the canonical column
// set. For a pre-existing table it adds any missing columns and never touches
// existing data or rows.
func (r *RecordRepository) Migrate(s *entity.ObjectTypeSchema) error {
	type decl struct{ name, typ string }
	var cols []decl
	for _, c := range systemColumnDecls {
		cols = append(cols, decl{c.name, c.typ})
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if entity.SystemColumns[f.Column] {
			continue
		}
		cols = append(cols, decl{f.Column, columnType(f.Kind)})
	}

	migrator := r.db.Migrator()
	if !migrator.HasTable(s.OType) {
		idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
		if r.db.Dialector.Name() == "postgres" {
			idCol = "id BIGSERIAL PRIMARY KEY"
		}
		parts := []string{idCol}
		for _, c := range cols {
			parts = append(parts, fmt.Sprintf("%q %s", c.name, c.typ))
		}
		ddl := fmt.Sprintf("CREATE TABLE %q (%s)", s.OType, strings.Join(parts, ", "))
		if err := r.db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", s.OType, err)
		}
	} else {
		for _, c := range cols {
			if migrator.HasColumn(s.OType, c.name) {
				continue
			}
			ddl := fmt.Sprintf("ALTER TABLE %q ADD COLUMN %q %s", s.OType, c.name, c.typ)
			if err := r.db.Exec(ddl).Error; err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", s.OType, c.name, err)
			}
		}
	}

	// Lookup index for resolve-by-signature; non-unique because an explicit
	// "new record" action legitimately duplicates a signature.
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %q ON %q (%q)",
		"idx_"+s.OType+"_meta_signature", s.OType, entity.ColMetaSignature)
	if err := r.db.Exec(idx).Error; err != nil {
		return fmt.Errorf("failed to index %s: %w", s.OType, err)
	}

	return nil
}
