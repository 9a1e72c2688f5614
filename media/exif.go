package media

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/fieldworks/artifact-capture/entity"
)

// ExtractExif pulls a best-effort summary and GPS fix out of the original
// upload bytes. Every sub-extraction failure leaves that field at its zero
// value; this function never returns an error because EXIF problems must not
// abort an attach.
func ExtractExif(raw []byte) (entity.ExifSummary, entity.GPSFix) {
	var summary entity.ExifSummary
	var fix entity.GPSFix

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil || x == nil {
		return summary, fix
	}

	if t, err := x.DateTime(); err == nil {
		summary.CaptureTime = t.Format("2006-01-02T15:04:05")
	}
	summary.Make = tagString(x, exif.Make)
	summary.Model = tagString(x, exif.Model)
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			summary.Orientation = v
		}
	}

	lat, latOK := gpsCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon, lonOK := gpsCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if latOK && lonOK {
		fix.Lat = &lat
		fix.Lon = &lon
	}
	if alt, ok := gpsAltitude(x); ok {
		fix.Alt = &alt
	}

	return summary, fix
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

// gpsCoordinate reads one GPS axis: the degree/minute/second rationals plus
// the hemisphere reference tag.
func gpsCoordinate(x *exif.Exif, coord, ref exif.FieldName) (float64, bool) {
	tag, err := x.Get(coord)
	if err != nil {
		return 0, false
	}
	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		dms[i] = float64(num) / float64(den)
	}
	hemisphere := ""
	if t, err := x.Get(ref); err == nil {
		if s, err := t.StringVal(); err == nil {
			hemisphere = s
		}
	}
	return DMSToDegrees(dms[0], dms[1], dms[2], hemisphere), true
}

// gpsAltitude reads GPSAltitude as a rational, negated when GPSAltitudeRef
// marks below sea level.
func gpsAltitude(x *exif.Exif) (float64, bool) {
	tag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return 0, false
	}
	alt, ok := ratioToFloat(tag)
	if !ok {
		return 0, false
	}
	if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := ref.Int(0); err == nil && v == 1 {
			alt = -alt
		}
	}
	return alt, true
}

func ratioToFloat(tag *tiff.Tag) (float64, bool) {
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

// DMSToDegrees converts a degree/minute/second triple to decimal degrees,
// negative for the S and W hemispheres.
func DMSToDegrees(deg, min, sec float64, ref string) float64 {
	d := deg + min/60.0 + sec/3600.0
	if ref == "S" || ref == "W" {
		return -d
	}
	return d
}
