package domain

import (
	"math"
	"strings"
)

// CoordinatesInRange reports whether the pair is a finite, valid WGS84 point.
func CoordinatesInRange(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateNewStore checks the creation preconditions: non-empty name, a valid
// coordinate pair, and a non-empty author id.
func ValidateNewStore(name string, lat, lng float64, authorID string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if !CoordinatesInRange(lat, lng) {
		return NewValidationError("location", "latitude/longitude pair is out of range")
	}
	if authorID == "" {
		return NewValidationError("author", "must not be empty")
	}
	return nil
}

// ValidatePatch rejects patches that would clear the name or move the store
// to an invalid point.
func ValidatePatch(patch StorePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if patch.Location != nil {
		loc := *patch.Location
		if len(loc.Coordinates) != 2 || !CoordinatesInRange(loc.Latitude(), loc.Longitude()) {
			return NewValidationError("location", "latitude/longitude pair is out of range")
		}
	}
	return nil
}
