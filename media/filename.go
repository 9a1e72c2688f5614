package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldworks/artifact-capture/entity"
)

var (
	placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
	unsafeRe      = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	underscoreRe  = regexp.MustCompile(`_{2,}`)
)

// Slugify reduces a field value to a filesystem-safe token: anything outside
// [A-Za-z0-9_-] becomes '_', runs of '_' collapse, leading/trailing '_' are
// trimmed. The result can never contain a path separator, so rendered names
// cannot escape the content directory.
func Slugify(v string) string {
	s := unsafeRe.ReplaceAllString(v, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// RenderStem renders the object type's filename template for one attached
// image. Placeholders take the slug of the corresponding field value; unknown
// placeholders resolve to empty. The per-record image index suffix keeps
// repeated images on the same record from colliding.
func RenderStem(s *entity.ObjectTypeSchema, values map[string]any, recordID int64, imageIndex int) string {
	format := s.FilenameFormat
	if format == "" {
		format = strings.ToUpper(s.OType) + "_ID{record_id}"
	}

	stem := placeholderRe.ReplaceAllStringFunc(format, func(m string) string {
		name := m[1 : len(m)-1]
		if name == "record_id" {
			return fmt.Sprintf("%d", recordID)
		}
		v, ok := values[name]
		if !ok || v == nil {
			return ""
		}
		return Slugify(fmt.Sprintf("%v", v))
	})

	stem = underscoreRe.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "_")
	if stem == "" {
		stem = fmt.Sprintf("%s_ID%d", strings.ToUpper(Slugify(s.OType)), recordID)
	}
	return fmt.Sprintf("%s_IMG%d", stem, imageIndex)
}
