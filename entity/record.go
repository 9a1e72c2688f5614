package entity

// System columns present on every record table regardless of schema or GPS
// configuration, so databases stay interchangeable between deployments.
const (
	ColID            = "id"
	ColMetaSignature = "meta_signature"
	ColImages        = "images_json"
	ColThumbs        = "thumbs_json"
	ColWebps         = "webps_json"
	ColSidecars      = "json_files_json"
	ColGPSLat        = "gps_lat"
	ColGPSLon        = "gps_lon"
	ColGPSAlt        = "gps_alt"
	ColGPSAcc        = "gps_acc"
	ColWidth         = "image_width"
	ColHeight        = "image_height"
	ColExifSummary   = "exif_summary"
	ColClientIP      = "client_ip"
	ColUserAgent     = "user_agent"
	ColLastSaved     = "date_last_saved"
	ColDateRecorded  = "date_recorded"
	ColDateUpdated   = "date_updated"
)

// SystemColumns is the set of columns the store manages itself. Coerced form
// values for these names are never written directly (server-managed
// timestamps are the one exception, handled by the coercer).
var SystemColumns = map[string]bool{
	ColID:            true,
	ColMetaSignature: true,
	ColImages:        true,
	ColThumbs:        true,
	ColWebps:         true,
	ColSidecars:      true,
	ColGPSLat:        true,
	ColGPSLon:        true,
	ColGPSAlt:        true,
	ColGPSAcc:        true,
	ColWidth:         true,
	ColHeight:        true,
	ColExifSummary:   true,
	ColClientIP:      true,
	ColUserAgent:     true,
	ColLastSaved:     true,
}

// FileListColumns in sidecar/list order. Entry i across all four lists was
// produced by the same attach call.
var FileListColumns = []string{ColImages, ColThumbs, ColWebps, ColSidecars}

// GPSFix is an optional coordinate set, from EXIF or from the client.
type GPSFix struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Alt *float64 `json:"alt"`
	Acc *float64 `json:"acc"`
}

// Valid reports whether the fix carries both a latitude and a longitude.
func (g GPSFix) Valid() bool {
	return g.Lat != nil && g.Lon != nil
}

// ExifSummary is the best-effort metadata extracted from an upload. Any field
// may be empty; extraction failures never abort an attach.
type ExifSummary struct {
	CaptureTime string `json:"capture_time,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	Orientation int    `json:"orientation,omitempty"`
}

// CaptureContext is the request-side context stored with an attached image.
type CaptureContext struct {
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Record is one row of an object-type table. Values holds the schema fields;
// the remaining attributes mirror the system columns.
type Record struct {
	ID            int64          `json:"id"`
	OType         string         `json:"otype"`
	Values        map[string]any `json:"values"`
	MetaSignature string         `json:"meta_signature"`
	Images        []string       `json:"images"`
	Thumbs        []string       `json:"thumbs"`
	Webps         []string       `json:"webps"`
	Sidecars      []string       `json:"json_files"`
	GPS           GPSFix         `json:"gps"`
	Width         int            `json:"image_width,omitempty"`
	Height        int            `json:"image_height,omitempty"`
	DateLastSaved string         `json:"date_last_saved"`
}

// ImageCount returns the number of attached images.
func (r *Record) ImageCount() int {
	return len(r.Images)
}

// DerivedImageSet is the family of files produced from one uploaded photo.
// Webp is empty when the alternate encoding was skipped or failed; the list
// entry is still appended (empty string) to keep indexes parallel.
type DerivedImageSet struct {
	Image   string `json:"image"`
	Thumb   string `json:"thumb"`
	Webp    string `json:"webp,omitempty"`
	Sidecar string `json:"sidecar"`
}
