package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bstardust/htgen/internal/exif"
	"github.com/bstardust/htgen/internal/geocode"
	"github.com/bstardust/htgen/internal/logger"
)

// ImageMetadata is everything we know about where and how a picture was taken.
// Every field is optional; an image without EXIF yields the zero value.
type ImageMetadata struct {
	TakenAt      *time.Time `json:"imageTakenTime,omitempty"`
	Latitude     *float64   `json:"geolocation_lat,omitempty"`
	Longitude    *float64   `json:"geolocation_lng,omitempty"`
	CameraMake   string     `json:"camera_make,omitempty"`
	CameraModel  string     `json:"camera_model,omitempty"`
	ExposureTime string     `json:"exposure_time,omitempty"`
	FNumber      *float64   `json:"f_number,omitempty"`
	ISO          *int       `json:"iso,omitempty"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
}

// HasLocation reports whether decimal coordinates were decoded
func (m ImageMetadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Place returns the resolved city and country
func (m ImageMetadata) Place() geocode.Place {
	return geocode.Place{City: m.City, Country: m.Country}
}

// Extractor extracts metadata from images and optionally resolves their location
type Extractor struct {
	geocoder geocode.Geocoder
}

// NewExtractor creates a new metadata extractor. A nil geocoder disables reverse lookups.
func NewExtractor(geocoder geocode.Geocoder) *Extractor {
	return &Extractor{
		geocoder: geocoder,
	}
}

// FromFile extracts metadata from the image at path. Only I/O failures are returned.
func (e *Extractor) FromFile(ctx context.Context, path string) (ImageMetadata, error) {
	logger.Info("Processing image: %s", path)

	b, err := os.ReadFile(path)
	if err != nil {
		return ImageMetadata{}, fmt.Errorf("failed to read image file: %w", err)
	}
	return e.FromBytes(ctx, b), nil
}

// FromBytes extracts metadata from raw image bytes. Missing or broken EXIF, bad GPS
// values and geocoding failures all degrade to empty fields.
func (e *Extractor) FromBytes(ctx context.Context, b []byte) ImageMetadata {
	return e.fromReader(ctx, bytes.NewReader(b))
}

func (e *Extractor) fromReader(ctx context.Context, r io.Reader) ImageMetadata {
	var m ImageMetadata

	data, err := exif.Extract(r)
	switch {
	case errors.Is(err, exif.ErrNoExif):
		logger.Info("No EXIF data found in image")
		return m
	case err != nil:
		logger.Warn("Failed to read EXIF data: %v", err)
		return m
	}

	m.TakenAt = data.DateTime
	m.CameraMake = data.Make
	m.CameraModel = data.Model
	m.ExposureTime = data.ExposureTime
	m.FNumber = data.FNumber
	m.ISO = data.ISO

	if data.GPSErr != nil {
		logger.Warn("Failed to process GPS coordinates: %v", data.GPSErr)
		return m
	}
	if data.GPS == nil {
		logger.Info("No GPS coordinates found in EXIF data")
		return m
	}

	lat, lng := data.GPS.Latitude, data.GPS.Longitude
	m.Latitude = &lat
	m.Longitude = &lng
	logger.Info("Found GPS coordinates: %f, %f", lat, lng)

	if e.geocoder == nil {
		return m
	}

	place, err := e.geocoder.Reverse(ctx, geocode.Coordinates{Latitude: lat, Longitude: lng})
	switch {
	case errors.Is(err, geocode.ErrBadResponse):
		logger.Warn("Failed to parse location data: %v", err)
	case err != nil:
		logger.Error("Failed to fetch location data: %v", err)
	default:
		m.City = place.City
		m.Country = place.Country
		if place.City != "" && place.Country != "" {
			logger.Info("Location identified as %s, %s", place.City, place.Country)
		} else {
			logger.Info("Could not determine precise location from coordinates")
		}
	}

	return m
}
