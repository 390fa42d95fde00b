package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"store-directory/internal/store/domain"
)

// geoPointDocument is the GeoJSON form the 2dsphere index expects:
// type "Point", coordinates [lng, lat].
type geoPointDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

// storeDocument is the persisted shape of a Store.
type storeDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	Location    geoPointDocument   `bson:"location"`
	Photo       string             `bson:"photo,omitempty"`
	Author      string             `bson:"author"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// storePreviewDocument is the minimal projection used for map rendering.
type storePreviewDocument struct {
	Slug        string           `bson:"slug"`
	Name        string           `bson:"name"`
	Description string           `bson:"description,omitempty"`
	Location    geoPointDocument `bson:"location"`
	Photo       string           `bson:"photo,omitempty"`
}

func toStoreDocument(s *domain.Store) (*storeDocument, error) {
	if s == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if s.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(s.ID)
		if err != nil {
			return nil, fmt.Errorf("toStoreDocument: invalid ID %q: %w", s.ID, err)
		}
	}

	return &storeDocument{
		ID:          docID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Tags:        s.Tags,
		Location: geoPointDocument{
			Type:        domain.GeoJSONPoint,
			Coordinates: s.Location.Coordinates,
		},
		Photo:     s.Photo,
		Author:    s.Author,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func toDomainStore(d *storeDocument) *domain.Store {
	if d == nil {
		return nil
	}
	return &domain.Store{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Tags:        d.Tags,
		Location: domain.Location{
			Type:        d.Location.Type,
			Coordinates: d.Location.Coordinates,
		},
		Photo:     d.Photo,
		Author:    d.Author,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDomainStores(docs []*storeDocument) []*domain.Store {
	stores := make([]*domain.Store, 0, len(docs))
	for _, doc := range docs {
		stores = append(stores, toDomainStore(doc))
	}
	return stores
}

func toDomainPreview(d *storePreviewDocument) *domain.StorePreview {
	if d == nil {
		return nil
	}
	return &domain.StorePreview{
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Location: domain.Location{
			Type:        d.Location.Type,
			Coordinates: d.Location.Coordinates,
		},
		Photo: d.Photo,
	}
}
