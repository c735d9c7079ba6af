package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"itinera/itinerary"
	"itinera/models"
)

const opTimeout = 5 * time.Second

// Store is the MongoDB implementation of itinerary.Store and
// itinerary.ForecastStore.
type Store struct {
	itineraries *mongo.Collection
	items       *mongo.Collection
	forecasts   *mongo.Collection
	counters    *mongo.Collection
}

func NewStore(database *mongo.Database) *Store {
	return &Store{
		itineraries: database.Collection(ItinerariesCollection),
		items:       database.Collection(ItemsCollection),
		forecasts:   database.Collection(ForecastsCollection),
		counters:    database.Collection(CountersCollection),
	}
}

// EnsureIndexes creates the lookup and uniqueness indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.itineraries: {
			{Keys: bson.D{{Key: "itineraryid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "collaborators.user_id", Value: 1}}},
		},
		s.items: {
			{Keys: bson.D{{Key: "itineraryid", Value: 1}, {Key: "itemid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "itineraryid", Value: 1}, {Key: "day_index", Value: 1}, {Key: "seq", Value: 1}}},
		},
		s.forecasts: {
			{Keys: bson.D{{Key: "itineraryid", Value: 1}, {Key: "date", Value: 1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

var notDeleted = bson.M{"$ne": true}

func (s *Store) CreateItinerary(ctx context.Context, it *models.Itinerary) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	it.Version = 1
	if _, err := s.itineraries.InsertOne(ctx, it); err != nil {
		return fmt.Errorf("error inserting itinerary: %w", err)
	}
	return nil
}

func (s *Store) GetItinerary(ctx context.Context, id string) (*models.Itinerary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var it models.Itinerary
	err := s.itineraries.FindOne(ctx, bson.M{"itineraryid": id, "deleted": notDeleted}).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, itinerary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching itinerary: %w", err)
	}
	return &it, nil
}

func (s *Store) ListItineraries(ctx context.Context, f itinerary.Filter) ([]models.Itinerary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "itineraryid", Value: 1}})
	return findAll[models.Itinerary](ctx, s.itineraries, itineraryFilter(f), opts)
}

func itineraryFilter(f itinerary.Filter) bson.M {
	filter := bson.M{"deleted": notDeleted}
	if f.Member != "" {
		filter["$or"] = bson.A{
			bson.M{"user_id": f.Member},
			bson.M{"collaborators.user_id": f.Member},
		}
	}
	if f.StartDate != "" {
		filter["start_date"] = f.StartDate
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Published != nil {
		filter["published"] = *f.Published
	}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Query), "$options": "i"}
	}
	return filter
}

func (s *Store) UpdateItinerary(ctx context.Context, it *models.Itinerary, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"itineraryid": it.ItineraryID, "version": expectedVersion, "deleted": notDeleted}
	next := *it
	next.Version = expectedVersion + 1
	res, err := s.itineraries.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("error updating itinerary: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.missOrConflict(ctx, s.itineraries, bson.M{"itineraryid": it.ItineraryID, "deleted": notDeleted})
	}
	it.Version = next.Version
	return nil
}

// DeleteItinerary soft-deletes the itinerary and hard-deletes everything
// that hangs off it.
func (s *Store) DeleteItinerary(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.itineraries.UpdateOne(ctx,
		bson.M{"itineraryid": id, "deleted": notDeleted},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return fmt.Errorf("error deleting itinerary: %w", err)
	}
	if res.MatchedCount == 0 {
		return itinerary.ErrNotFound
	}

	if _, err := s.items.DeleteMany(ctx, bson.M{"itineraryid": id}); err != nil {
		return fmt.Errorf("error deleting items of %s: %w", id, err)
	}
	if _, err := s.forecasts.DeleteMany(ctx, bson.M{"itineraryid": id}); err != nil {
		return fmt.Errorf("error deleting forecasts of %s: %w", id, err)
	}
	if _, err := s.counters.DeleteOne(ctx, bson.M{"_id": counterID(id)}); err != nil {
		return fmt.Errorf("error deleting counter of %s: %w", id, err)
	}
	return nil
}

func (s *Store) AddItem(ctx context.Context, item *models.Item) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.itineraries.CountDocuments(ctx, bson.M{"itineraryid": item.ItineraryID, "deleted": notDeleted})
	if err != nil {
		return fmt.Errorf("error checking itinerary: %w", err)
	}
	if n == 0 {
		return itinerary.ErrNotFound
	}

	seq, err := s.nextSeq(ctx, item.ItineraryID)
	if err != nil {
		return err
	}
	item.Seq = seq
	item.Version = 1
	if _, err := s.items.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("error inserting item: %w", err)
	}
	return nil
}

// nextSeq atomically increments the per-itinerary insertion counter.
func (s *Store) nextSeq(ctx context.Context, itineraryID string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterID(itineraryID)},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error allocating item sequence: %w", err)
	}
	return counter.Seq, nil
}

func counterID(itineraryID string) string {
	return "items:" + itineraryID
}

func (s *Store) GetItem(ctx context.Context, itineraryID, itemID string) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var item models.Item
	err := s.items.FindOne(ctx, bson.M{"itineraryid": itineraryID, "itemid": itemID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, itinerary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching item: %w", err)
	}
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context, itineraryID string, dayIndex int) ([]models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"itineraryid": itineraryID}
	if dayIndex != 0 {
		filter["day_index"] = dayIndex
	}
	return findAll[models.Item](ctx, s.items, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"itineraryid": item.ItineraryID, "itemid": item.ItemID, "version": expectedVersion}
	next := *item
	next.Version = expectedVersion + 1
	// seq is owned by the store and never rewritten.
	update := bson.M{"$set": itemFields(&next)}
	res, err := s.items.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating item: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.missOrConflict(ctx, s.items, bson.M{"itineraryid": item.ItineraryID, "itemid": item.ItemID})
	}
	item.Version = next.Version
	return nil
}

func itemFields(item *models.Item) bson.M {
	return bson.M{
		"category":      item.Category,
		"title":         item.Title,
		"day_index":     item.DayIndex,
		"start":         item.Start,
		"end":           item.End,
		"duration":      item.Duration,
		"location":      item.Location,
		"cost":          item.Cost,
		"notes":         item.Notes,
		"photos":        item.Photos,
		"transport":     item.Transport,
		"accommodation": item.Accommodation,
		"meal":          item.Meal,
		"version":       item.Version,
		"updated_at":    item.UpdatedAt,
	}
}

func (s *Store) DeleteItem(ctx context.Context, itineraryID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.items.DeleteOne(ctx, bson.M{"itineraryid": itineraryID, "itemid": itemID})
	if err != nil {
		return fmt.Errorf("error deleting item: %w", err)
	}
	if res.DeletedCount == 0 {
		return itinerary.ErrNotFound
	}
	return nil
}

func (s *Store) Forecasts(ctx context.Context, itineraryID string) ([]models.ForecastEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.ForecastEntry](ctx, s.forecasts, bson.M{"itineraryid": itineraryID},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

// SetForecasts replaces the stored forecast of an itinerary.
func (s *Store) SetForecasts(ctx context.Context, itineraryID string, entries []models.ForecastEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, e := range entries {
		if _, err := time.Parse(models.DateLayout, e.Date); err != nil {
			return fmt.Errorf("forecast date %q: %w", e.Date, err)
		}
	}
	if _, err := s.forecasts.DeleteMany(ctx, bson.M{"itineraryid": itineraryID}); err != nil {
		return fmt.Errorf("error clearing forecasts: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, len(entries))
	for i, e := range entries {
		e.ItineraryID = itineraryID
		docs[i] = e
	}
	if _, err := s.forecasts.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error inserting forecasts: %w", err)
	}
	return nil
}

// missOrConflict tells a missing document from a stale version after a
// conditional write matched nothing.
func (s *Store) missOrConflict(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("error checking %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return itinerary.ErrNotFound
	}
	return itinerary.ErrVersionConflict
}

var (
	_ itinerary.Store         = (*Store)(nil)
	_ itinerary.ForecastStore = (*Store)(nil)
)
