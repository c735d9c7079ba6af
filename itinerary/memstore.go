package itinerary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"itinera/models"
)

// MemoryStore is a process-local Store and ForecastStore. It backs tests
// and STORE_BACKEND=memory deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	itineraries map[string]*models.Itinerary
	items       map[string]map[string]*models.Item
	seq         map[string]int64
	forecasts   map[string][]models.ForecastEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		itineraries: make(map[string]*models.Itinerary),
		items:       make(map[string]map[string]*models.Item),
		seq:         make(map[string]int64),
		forecasts:   make(map[string][]models.ForecastEntry),
	}
}

func (m *MemoryStore) CreateItinerary(ctx context.Context, it *models.Itinerary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.itineraries[it.ItineraryID]; exists {
		return fmt.Errorf("itinerary %s already exists", it.ItineraryID)
	}
	it.Version = 1
	m.itineraries[it.ItineraryID] = cloneItinerary(it)
	return nil
}

func (m *MemoryStore) GetItinerary(ctx context.Context, id string) (*models.Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.itineraries[id]
	if !ok || it.Deleted {
		return nil, ErrNotFound
	}
	return cloneItinerary(it), nil
}

func (m *MemoryStore) ListItineraries(ctx context.Context, f Filter) ([]models.Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Itinerary{}
	for _, it := range m.itineraries {
		if it.Deleted || !matches(it, f) {
			continue
		}
		out = append(out, *cloneItinerary(it))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ItineraryID < out[j].ItineraryID
	})
	return out, nil
}

func matches(it *models.Itinerary, f Filter) bool {
	if f.Member != "" {
		if _, ok := it.Collaborator(f.Member); !ok && it.UserID != f.Member {
			return false
		}
	}
	if f.StartDate != "" && it.StartDate != f.StartDate {
		return false
	}
	if f.Status != "" && it.Status != f.Status {
		return false
	}
	if f.Published != nil && it.Published != *f.Published {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

func (m *MemoryStore) UpdateItinerary(ctx context.Context, it *models.Itinerary, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.itineraries[it.ItineraryID]
	if !ok || cur.Deleted {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}
	it.Version = expectedVersion + 1
	m.itineraries[it.ItineraryID] = cloneItinerary(it)
	return nil
}

func (m *MemoryStore) DeleteItinerary(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.itineraries[id]
	if !ok || it.Deleted {
		return ErrNotFound
	}
	it.Deleted = true
	it.Version++
	it.UpdatedAt = time.Now().UTC()
	delete(m.items, id)
	delete(m.forecasts, id)
	return nil
}

func (m *MemoryStore) AddItem(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.itineraries[item.ItineraryID]; !ok || it.Deleted {
		return ErrNotFound
	}
	m.seq[item.ItineraryID]++
	item.Seq = m.seq[item.ItineraryID]
	item.Version = 1

	if m.items[item.ItineraryID] == nil {
		m.items[item.ItineraryID] = make(map[string]*models.Item)
	}
	m.items[item.ItineraryID][item.ItemID] = cloneItem(item)
	return nil
}

func (m *MemoryStore) GetItem(ctx context.Context, itineraryID, itemID string) (*models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itineraryID][itemID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneItem(item), nil
}

func (m *MemoryStore) ListItems(ctx context.Context, itineraryID string, dayIndex int) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Item{}
	for _, item := range m.items[itineraryID] {
		if dayIndex != 0 && item.DayIndex != dayIndex {
			continue
		}
		out = append(out, *cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemoryStore) UpdateItem(ctx context.Context, item *models.Item, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[item.ItineraryID][item.ItemID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}
	item.Seq = cur.Seq
	item.Version = expectedVersion + 1
	m.items[item.ItineraryID][item.ItemID] = cloneItem(item)
	return nil
}

func (m *MemoryStore) DeleteItem(ctx context.Context, itineraryID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[itineraryID][itemID]; !ok {
		return ErrNotFound
	}
	delete(m.items[itineraryID], itemID)
	return nil
}

func (m *MemoryStore) Forecasts(ctx context.Context, itineraryID string) ([]models.ForecastEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ForecastEntry(nil), m.forecasts[itineraryID]...), nil
}

// SetForecasts replaces the forecast list of an itinerary.
func (m *MemoryStore) SetForecasts(itineraryID string, entries []models.ForecastEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[itineraryID] = append([]models.ForecastEntry(nil), entries...)
}

func cloneItinerary(it *models.Itinerary) *models.Itinerary {
	c := *it
	c.Collaborators = append([]models.Collaborator(nil), it.Collaborators...)
	if it.Budget != nil {
		b := *it.Budget
		c.Budget = &b
	}
	if it.ForkedFrom != nil {
		f := *it.ForkedFrom
		c.ForkedFrom = &f
	}
	return &c
}

func cloneItem(item *models.Item) *models.Item {
	c := *item
	c.Photos = append([]string(nil), item.Photos...)
	if item.Location != nil {
		l := *item.Location
		c.Location = &l
	}
	if item.Cost != nil {
		m := *item.Cost
		c.Cost = &m
	}
	if item.Transport != nil {
		t := *item.Transport
		if item.Transport.DistanceKm != nil {
			d := *item.Transport.DistanceKm
			t.DistanceKm = &d
		}
		c.Transport = &t
	}
	if item.Accommodation != nil {
		a := *item.Accommodation
		c.Accommodation = &a
	}
	if item.Meal != nil {
		ml := *item.Meal
		c.Meal = &ml
	}
	return &c
}
