package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"itinera/models"
)

// ErrPlaceNotFound is returned for unknown, deleted or closed places.
var ErrPlaceNotFound = errors.New("place not found")

// Directory resolves place IDs against the places collection.
type Directory struct {
	coll *mongo.Collection
}

func NewDirectory(coll *mongo.Collection) *Directory {
	return &Directory{coll: coll}
}

func (d *Directory) Resolve(ctx context.Context, placeID string) (*models.Place, error) {
	if placeID == "" {
		return nil, ErrPlaceNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var place models.Place
	err := d.coll.FindOne(ctx, activePlace(placeID)).Decode(&place)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch place %s: %w", placeID, err)
	}
	return &place, nil
}

func activePlace(placeID string) bson.M {
	return bson.M{
		"placeid":   placeID,
		"deletedAt": bson.M{"$exists": false},
		"status":    bson.M{"$ne": models.PlaceStatusClosed},
	}
}
