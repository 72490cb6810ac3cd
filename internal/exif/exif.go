// internal/exif/exif.go
package exif

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

var (
	// ErrNoExif means the image carries no EXIF block. It is an expected outcome.
	ErrNoExif = errors.New("exif: no exif data")
	// ErrUnreadable means an EXIF block was found but could not be decoded.
	ErrUnreadable = errors.New("exif: unreadable exif data")
	// ErrMalformedCoordinate means GPS tags are present but do not form a valid coordinate.
	ErrMalformedCoordinate = errors.New("exif: malformed gps coordinate")
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Data represents EXIF metadata
type Data struct {
	DateTime     *time.Time
	GPS          *GPSInfo
	Make         string
	Model        string
	ExposureTime string
	FNumber      *float64
	ISO          *int

	// GPSErr is set when GPS tags exist but could not be decoded
	GPSErr error
}

// GPSInfo represents GPS information from EXIF, in decimal degrees
type GPSInfo struct {
	Latitude  float64
	Longitude float64
}

// Extract extracts EXIF metadata from a reader
func Extract(r io.Reader) (*Data, error) {
	x, err := exif.Decode(r)
	if err != nil {
		if isAbsent(err) {
			return nil, ErrNoExif
		}
		// goexif returns partial data alongside non-critical errors
		if x == nil || exif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}

	data := &Data{}

	if dt, err := x.DateTime(); err == nil {
		data.DateTime = &dt
	}

	data.Make = stringTag(x, exif.Make)
	data.Model = stringTag(x, exif.Model)

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			data.ExposureTime = formatExposure(num, den)
		}
	}

	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			f := float64(num) / float64(den)
			data.FNumber = &f
		}
	}

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			data.ISO = &iso
		}
	}

	gps, err := decodeGPS(x)
	switch {
	case err == nil:
		data.GPS = gps
	case errors.Is(err, ErrMalformedCoordinate):
		data.GPSErr = err
	}

	return data, nil
}

// DecimalDegrees converts a degrees/minutes/seconds triple to signed decimal degrees.
// The result is negative for the southern and western hemispheres.
func DecimalDegrees(dms [3]float64, ref string) (float64, error) {
	deg, mins, secs := dms[0], dms[1], dms[2]
	if deg < 0 || mins < 0 || mins >= 60 || secs < 0 || secs >= 60 {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, dms)
	}

	decimal := deg + mins/60 + secs/3600

	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "N", "E":
		return decimal, nil
	case "S", "W":
		return -decimal, nil
	default:
		return 0, fmt.Errorf("%w: reference %q", ErrMalformedCoordinate, ref)
	}
}

var errNoGPS = errors.New("exif: no gps tags")

// decodeGPS reads the four GPS position tags. All of them must be present.
func decodeGPS(x *exif.Exif) (*GPSInfo, error) {
	latTag, err1 := x.Get(exif.GPSLatitude)
	latRefTag, err2 := x.Get(exif.GPSLatitudeRef)
	lonTag, err3 := x.Get(exif.GPSLongitude)
	lonRefTag, err4 := x.Get(exif.GPSLongitudeRef)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, errNoGPS
	}

	lat, err := coordinate(latTag, latRefTag)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := coordinate(lonTag, lonRefTag)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: out of range (%f, %f)", ErrMalformedCoordinate, lat, lon)
	}

	return &GPSInfo{Latitude: lat, Longitude: lon}, nil
}

func coordinate(value, ref *tiff.Tag) (float64, error) {
	if value.Count != 3 {
		return 0, fmt.Errorf("%w: expected 3 values, got %d", ErrMalformedCoordinate, value.Count)
	}

	var dms [3]float64
	for i := range dms {
		num, den, err := value.Rat2(i)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
		}
		if den == 0 {
			return 0, fmt.Errorf("%w: zero denominator", ErrMalformedCoordinate)
		}
		dms[i] = float64(num) / float64(den)
	}

	refStr, err := ref.StringVal()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
	}

	return DecimalDegrees(dms, refStr)
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func formatExposure(num, den int64) string {
	if num == 0 {
		return "0"
	}
	if den%num == 0 {
		if den == num {
			return "1"
		}
		return "1/" + strconv.FormatInt(den/num, 10)
	}
	if num%den == 0 {
		return strconv.FormatInt(num/den, 10)
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
}

// isAbsent reports whether a decode error means there was simply no EXIF block
func isAbsent(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "error reading 4 byte header") ||
		strings.Contains(msg, "failed to find exif intro marker") ||
		strings.Contains(msg, "short read on header") ||
		strings.Contains(msg, "exif header") ||
		strings.Contains(msg, "no exif data")
}
