// Package exiftest builds small EXIF payloads for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
)

// Rational is a TIFF RATIONAL value: numerator, denominator
type Rational [2]uint32

// DMS builds a whole-number degrees/minutes/seconds triple
func DMS(deg, min, sec uint32) [3]Rational {
	return [3]Rational{{deg, 1}, {min, 1}, {sec, 1}}
}

// GPSTIFF builds a minimal little-endian TIFF whose IFD0 only points at a GPS IFD
// holding latitude, longitude and their references.
func GPSTIFF(latRef string, lat [3]Rational, lonRef string, lon [3]Rational) []byte {
	const (
		ifd0Offset = 8
		gpsOffset  = ifd0Offset + 2 + 12 + 4
		latOffset  = gpsOffset + 2 + 4*12 + 4
		lonOffset  = latOffset + 24
	)

	var buf bytes.Buffer
	le := binary.LittleEndian
	write := func(v interface{}) { _ = binary.Write(&buf, le, v) }
	entry := func(tag, typ uint16, count, value uint32) {
		write(tag)
		write(typ)
		write(count)
		write(value)
	}
	ascii := func(s string) uint32 {
		b := make([]byte, 4)
		copy(b, s)
		return le.Uint32(b)
	}

	buf.WriteString("II")
	write(uint16(42))
	write(uint32(ifd0Offset))

	// IFD0: GPSInfoIFDPointer
	write(uint16(1))
	entry(0x8825, 4, 1, gpsOffset)
	write(uint32(0))

	// GPS IFD, entries sorted by tag
	write(uint16(4))
	entry(0x0001, 2, 2, ascii(latRef))
	entry(0x0002, 5, 3, latOffset)
	entry(0x0003, 2, 2, ascii(lonRef))
	entry(0x0004, 5, 3, lonOffset)
	write(uint32(0))

	for _, r := range lat {
		write(r[0])
		write(r[1])
	}
	for _, r := range lon {
		write(r[0])
		write(r[1])
	}

	return buf.Bytes()
}

// PlainJPEG encodes a tiny JPEG without any APP1/EXIF segment
func PlainJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}
