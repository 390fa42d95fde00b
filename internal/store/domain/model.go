package domain

import "time"

// GeoJSONPoint is the only geometry type a store location may carry.
const GeoJSONPoint = "Point"

// DefaultPhoto is used when a listing is created or updated without an upload.
const DefaultPhoto = "store.png"

// Location is a GeoJSON point. Coordinates are [longitude, latitude],
// the order the geospatial index expects.
type Location struct {
	Type        string
	Coordinates []float64
}

// NewLocation builds a "Point" location from a latitude/longitude pair.
func NewLocation(lat, lng float64) Location {
	return Location{Type: GeoJSONPoint, Coordinates: []float64{lng, lat}}
}

// Longitude returns the first coordinate, 0 if the point is malformed.
func (l Location) Longitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

// Latitude returns the second coordinate, 0 if the point is malformed.
func (l Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

// Store is a published place listing. Slug uniquely identifies a store and
// is derived from Name; Author is set at creation and never changes.
type Store struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Tags        []string
	Location    Location
	Photo       string
	Author      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StorePatch carries the mutable fields of an update. Nil fields are left
// untouched; a non-nil Location always has its type forced to "Point".
type StorePatch struct {
	Name        *string
	Slug        *string
	Description *string
	Tags        []string
	Location    *Location
	Photo       *string
}

// StorePreview is the minimal projection returned by proximity search,
// just enough to render a map pin.
type StorePreview struct {
	Slug        string
	Name        string
	Description string
	Location    Location
	Photo       string
}

// SearchResult is a store with the text index's relevance score attached.
type SearchResult struct {
	Store *Store
	Score float64
}

// TagCount is one entry of the tag-browse navigation.
type TagCount struct {
	Tag   string
	Count int64
}

// RatingSummary is the aggregate view of an external review source for one
// store. The engine never mutates reviews.
type RatingSummary struct {
	AverageRating float64
	ReviewCount   int64
}

// RatedStore joins a store with its rating aggregate for ranking.
type RatedStore struct {
	Store         *Store
	AverageRating float64
	ReviewCount   int64
}

// StoreDetail is a store joined with its rating aggregate for display.
type StoreDetail struct {
	Store  *Store
	Rating RatingSummary
}
