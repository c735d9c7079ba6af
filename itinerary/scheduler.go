package itinerary

import (
	"context"
	"log"
	"strings"
	"time"

	"itinera/dayplan"
	"itinera/directions"
	"itinera/models"
	"itinera/utils"
)

// Scheduler is the entry point for itinerary planning. It checks
// permissions, serialises mutations per itinerary and composes the day
// planner, summary aggregator, route optimizer and directions provider.
type Scheduler struct {
	store     Store
	router    directions.Provider
	places    PlaceResolver
	forecasts ForecastStore
	events    Emitter

	planner      dayplan.Planner
	shareBaseURL string
	locks        *lockTable
	now          func() time.Time
	newID        func() string
}

type Option func(*Scheduler)

func WithPlanner(p dayplan.Planner) Option {
	return func(s *Scheduler) { s.planner = p }
}

// WithShareBaseURL sets the public URL prefix encoded in day sheet QR codes.
func WithShareBaseURL(u string) Option {
	return func(s *Scheduler) { s.shareBaseURL = strings.TrimRight(u, "/") }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler wires a scheduler. router, places, forecasts and events may
// be nil: routes are then estimated, place references are kept as entered,
// days have no weather and no change events are published.
func NewScheduler(store Store, router directions.Provider, places PlaceResolver, forecasts ForecastStore, events Emitter, opts ...Option) *Scheduler {
	if router == nil {
		router = directions.NewResilient(nil, directions.DefaultRetryPolicy)
	}
	s := &Scheduler{
		store:     store,
		router:    router,
		places:    places,
		forecasts: forecasts,
		events:    events,
		planner:   dayplan.Default,
		locks:     newLockTable(),
		now:       time.Now,
		newID:     utils.GetUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItineraryInput carries the caller-editable fields of an itinerary.
type ItineraryInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	TimeZone    string        `json:"time_zone,omitempty"`
	Budget      *models.Money `json:"budget,omitempty"`
	Status      string        `json:"status,omitempty"`
	// Version is the version the caller last saw; 0 skips the check.
	Version int64 `json:"version,omitempty"`
}

func (s *Scheduler) CreateItinerary(ctx context.Context, userID string, in ItineraryInput) (*models.Itinerary, error) {
	if userID == "" {
		return nil, &PermissionDeniedError{Action: "create"}
	}
	now := s.now().UTC()
	it := &models.Itinerary{
		ItineraryID:   s.newID(),
		UserID:        userID,
		Name:          in.Name,
		Description:   in.Description,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		TimeZone:      in.TimeZone,
		Collaborators: []models.Collaborator{},
		Budget:        in.Budget,
		Status:        in.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if it.Status == "" {
		it.Status = models.StatusDraft
	}
	if err := validateItinerary(it); err != nil {
		return nil, err
	}
	if err := s.store.CreateItinerary(ctx, it); err != nil {
		return nil, storeErr(err, "itinerary", it.ItineraryID, 0)
	}

	log.Printf("[Scheduler] Itinerary %s created by %s (%d days)", it.ItineraryID, userID, it.DurationDays())
	s.emit(ctx, models.ItineraryEvent{ItineraryID: it.ItineraryID, Op: models.OpItineraryCreated, ActorID: userID, Version: it.Version})
	return it, nil
}

func (s *Scheduler) GetItinerary(ctx context.Context, userID, id string) (*models.Itinerary, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireRead(it, userID); err != nil {
		return nil, err
	}
	return it, nil
}

// ListItineraries returns the itineraries the caller owns or collaborates on.
func (s *Scheduler) ListItineraries(ctx context.Context, userID string) ([]models.Itinerary, error) {
	if userID == "" {
		return []models.Itinerary{}, nil
	}
	return s.store.ListItineraries(ctx, Filter{Member: userID})
}

// Search lists itineraries matching f that the caller may read.
func (s *Scheduler) Search(ctx context.Context, userID string, f Filter) ([]models.Itinerary, error) {
	found, err := s.store.ListItineraries(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.Itinerary, 0, len(found))
	for i := range found {
		if CanRead(&found[i], userID) {
			out = append(out, found[i])
		}
	}
	return out, nil
}

// ListItems returns every item of the itinerary in insertion order.
func (s *Scheduler) ListItems(ctx context.Context, userID, id string) ([]models.Item, error) {
	if _, err := s.GetItinerary(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, id, 0)
}

// UpdateItinerary edits trip metadata. Shrinking the date range below a
// scheduled item's day is rejected. Moving the start date shifts every item
// by the same number of days so each keeps its day index and time of day.
func (s *Scheduler) UpdateItinerary(ctx context.Context, userID, id string, in ItineraryInput) (*models.Itinerary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(cur, userID); err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != cur.Version {
		return nil, &ConflictError{Kind: "itinerary", ID: id, Expected: in.Version}
	}

	next := *cur
	next.Name = in.Name
	next.Description = in.Description
	next.StartDate = in.StartDate
	next.EndDate = in.EndDate
	next.TimeZone = in.TimeZone
	next.Budget = in.Budget
	if in.Status != "" {
		next.Status = in.Status
	}
	next.UpdatedAt = s.now().UTC()
	if err := validateItinerary(&next); err != nil {
		return nil, err
	}

	items, err := s.store.ListItems(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if next.Location().String() != cur.Location().String() {
			return nil, &ValidationError{Field: "time_zone", Reason: "cannot change the time zone of an itinerary with items"}
		}
		days := next.DurationDays()
		for _, item := range items {
			if item.DayIndex > days {
				return nil, &ValidationError{Field: "end_date", Reason: "would leave item " + item.ItemID + " outside the trip"}
			}
		}
	}

	// Items are shifted first; a failed write restores them.
	undo := func() {}
	shift := dayShift(cur, &next)
	if shift != 0 && len(items) > 0 {
		if undo, err = s.shiftItems(ctx, items, shift, next.Location(), next.UpdatedAt); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateItinerary(ctx, &next, cur.Version); err != nil {
		undo()
		return nil, storeErr(err, "itinerary", id, cur.Version)
	}
	if shift != 0 && len(items) > 0 {
		log.Printf("[Scheduler] Itinerary %s start moved by %d day(s); %d item(s) shifted", id, shift, len(items))
	}

	s.emit(ctx, models.ItineraryEvent{ItineraryID: id, Op: models.OpItineraryUpdated, ActorID: userID, Version: next.Version})
	return &next, nil
}

// DeleteItinerary soft-deletes the itinerary and its items. Owner only.
func (s *Scheduler) DeleteItinerary(ctx context.Context, userID, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	it, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(it, userID, "delete"); err != nil {
		return err
	}
	if err := s.store.DeleteItinerary(ctx, id); err != nil {
		return storeErr(err, "itinerary", id, it.Version)
	}

	log.Printf("[Scheduler] Itinerary %s deleted by %s", id, userID)
	s.emit(ctx, models.ItineraryEvent{ItineraryID: id, Op: models.OpItineraryDeleted, ActorID: userID, Version: it.Version + 1})
	return nil
}

// Publish toggles public read access. Owner only.
func (s *Scheduler) Publish(ctx context.Context, userID, id string, published bool) (*models.Itinerary, error) {
	return s.mutateItinerary(ctx, userID, id, "publish", models.OpItineraryUpdated, func(it *models.Itinerary) error {
		it.Published = published
		return nil
	})
}

// AddCollaborator grants userID view or edit access, or changes the
// permission of an existing collaborator. Owner only.
func (s *Scheduler) AddCollaborator(ctx context.Context, ownerID, id, userID string, perm models.Permission) (*models.Itinerary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if !perm.Valid() {
		return nil, &ValidationError{Field: "permission", Reason: "must be view or edit"}
	}
	return s.mutateItinerary(ctx, ownerID, id, "share", models.OpCollaboratorAdded, func(it *models.Itinerary) error {
		if userID == it.UserID {
			return &ValidationError{Field: "user_id", Reason: "the owner cannot be added as a collaborator"}
		}
		for i := range it.Collaborators {
			if it.Collaborators[i].UserID == userID {
				it.Collaborators[i].Permission = perm
				return nil
			}
		}
		it.Collaborators = append(it.Collaborators, models.Collaborator{UserID: userID, Permission: perm, AddedAt: s.now().UTC()})
		return nil
	})
}

// RemoveCollaborator revokes access. The owner may remove anyone; a
// collaborator may remove themselves.
func (s *Scheduler) RemoveCollaborator(ctx context.Context, callerID, id, userID string) (*models.Itinerary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(cur, callerID) && callerID != userID {
		return nil, &PermissionDeniedError{UserID: callerID, ItineraryID: id, Action: "unshare"}
	}
	if _, ok := cur.Collaborator(userID); !ok {
		return nil, &NotFoundError{Kind: "collaborator", ID: userID}
	}

	next := *cur
	next.Collaborators = make([]models.Collaborator, 0, len(cur.Collaborators))
	for _, c := range cur.Collaborators {
		if c.UserID != userID {
			next.Collaborators = append(next.Collaborators, c)
		}
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateItinerary(ctx, &next, cur.Version); err != nil {
		return nil, storeErr(err, "itinerary", id, cur.Version)
	}
	s.emit(ctx, models.ItineraryEvent{ItineraryID: id, Op: models.OpCollaboratorRemove, ActorID: callerID, Version: next.Version})
	return &next, nil
}

// Fork copies a readable itinerary and all its items into a new draft owned
// by the caller.
func (s *Scheduler) Fork(ctx context.Context, userID, id string) (*models.Itinerary, error) {
	if userID == "" {
		return nil, &PermissionDeniedError{ItineraryID: id, Action: "fork"}
	}
	src, err := s.GetItinerary(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	origin := src.ItineraryID
	fork := *src
	fork.ItineraryID = s.newID()
	fork.UserID = userID
	fork.Name = src.Name + " (copy)"
	fork.Collaborators = []models.Collaborator{}
	fork.Published = false
	fork.Status = models.StatusDraft
	fork.ForkedFrom = &origin
	fork.CreatedAt = now
	fork.UpdatedAt = now
	if err := s.store.CreateItinerary(ctx, &fork); err != nil {
		return nil, storeErr(err, "itinerary", fork.ItineraryID, 0)
	}

	for _, item := range items {
		copied := item
		copied.ItemID = s.newID()
		copied.ItineraryID = fork.ItineraryID
		copied.CreatedBy = userID
		copied.CreatedAt = now
		copied.UpdatedAt = now
		if err := s.store.AddItem(ctx, &copied); err != nil {
			return nil, storeErr(err, "item", copied.ItemID, 0)
		}
	}

	log.Printf("[Scheduler] Itinerary %s forked from %s by %s (%d items)", fork.ItineraryID, origin, userID, len(items))
	s.emit(ctx, models.ItineraryEvent{ItineraryID: fork.ItineraryID, Op: models.OpItineraryCreated, ActorID: userID, Version: fork.Version})
	return &fork, nil
}

// mutateItinerary runs an owner-only change under the itinerary lock.
func (s *Scheduler) mutateItinerary(ctx context.Context, userID, id, action string, op models.EventOp, apply func(*models.Itinerary) error) (*models.Itinerary, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(cur, userID, action); err != nil {
		return nil, err
	}
	next := *cur
	next.Collaborators = append([]models.Collaborator(nil), cur.Collaborators...)
	if err := apply(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateItinerary(ctx, &next, cur.Version); err != nil {
		return nil, storeErr(err, "itinerary", id, cur.Version)
	}
	s.emit(ctx, models.ItineraryEvent{ItineraryID: id, Op: op, ActorID: userID, Version: next.Version})
	return &next, nil
}

func (s *Scheduler) load(ctx context.Context, id string) (*models.Itinerary, error) {
	it, err := s.store.GetItinerary(ctx, id)
	if err != nil {
		return nil, storeErr(err, "itinerary", id, 0)
	}
	return it, nil
}

// emit publishes ev. Delivery is best effort: the mutation has already
// been stored, so failures are only logged.
func (s *Scheduler) emit(ctx context.Context, ev models.ItineraryEvent) {
	if s.events == nil {
		return
	}
	ev.EventID = s.newID()
	ev.At = s.now().UTC()
	if err := s.events.Emit(ctx, ev); err != nil {
		log.Printf("[Scheduler] Emit %s for %s failed: %v", ev.Op, ev.ItineraryID, err)
	}
}

// shiftItems writes every item moved by days. If a write fails the items
// already written are restored and the error returned; otherwise the
// returned func restores them all.
func (s *Scheduler) shiftItems(ctx context.Context, items []models.Item, days int, loc *time.Location, at time.Time) (func(), error) {
	originals := make([]*models.Item, 0, len(items))
	written := make([]*models.Item, 0, len(items))
	undo := func() {
		rctx := context.WithoutCancel(ctx)
		for i, restore := range originals {
			if err := s.store.UpdateItem(rctx, restore, written[i].Version); err != nil {
				log.Printf("[Scheduler] Restoring item %s failed: %v", restore.ItemID, err)
			}
		}
	}

	for i := range items {
		orig := cloneItem(&items[i])
		moved := cloneItem(&items[i])
		shiftItem(moved, days, loc)
		moved.UpdatedAt = at
		if err := s.store.UpdateItem(ctx, moved, moved.Version); err != nil {
			undo()
			return nil, storeErr(err, "item", moved.ItemID, orig.Version)
		}
		originals = append(originals, orig)
		written = append(written, moved)
	}
	return undo, nil
}

// dayShift is the number of whole days the trip start moved by.
func dayShift(before, after *models.Itinerary) int {
	a, _, errA := before.Bounds()
	b, _, errB := after.Bounds()
	if errA != nil || errB != nil {
		return 0
	}
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// shiftItem moves an item by whole calendar days in loc, keeping its wall
// clock times across DST changes.
func shiftItem(item *models.Item, days int, loc *time.Location) {
	shift := func(t time.Time) time.Time {
		if t.IsZero() {
			return t
		}
		return t.In(loc).AddDate(0, 0, days)
	}
	item.SetTimes(shift(item.Start), shift(item.End))
	if a := item.Accommodation; a != nil {
		a.CheckIn = shift(a.CheckIn)
		a.CheckOut = shift(a.CheckOut)
	}
}
