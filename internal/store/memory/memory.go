// Package memory is the local Store. All state lives in maps guarded by one
// RWMutex; transactions hold the write lock and restore a snapshot on error.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ms-reservation/internal/models"
	"ms-reservation/internal/store"
)

type data struct {
	venues       map[int64]models.Venue
	nextVenueID  int64
	settings     map[int64]*models.VenueSettings
	reservations map[string]models.Reservation
	users        map[string]models.User
}

func newData() *data {
	return &data{
		venues:       map[int64]models.Venue{},
		nextVenueID:  1,
		settings:     map[int64]*models.VenueSettings{},
		reservations: map[string]models.Reservation{},
		users:        map[string]models.User{},
	}
}

func (d *data) clone() *data {
	out := newData()
	out.nextVenueID = d.nextVenueID
	for k, v := range d.venues {
		out.venues[k] = v
	}
	for k, v := range d.settings {
		out.settings[k] = v.Clone()
	}
	for k, v := range d.reservations {
		out.reservations[k] = v
	}
	for k, v := range d.users {
		out.users[k] = cloneUser(v)
	}
	return out
}

func cloneUser(u models.User) models.User {
	if u.VenueID != nil {
		id := *u.VenueID
		u.VenueID = &id
	}
	return u
}

type Store struct {
	mu   *sync.RWMutex
	data *data
	inTx bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{mu: &sync.RWMutex{}, data: newData()}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true}
	if err := fn(ctx, tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

// Venues

func (s *Store) ListVenues(ctx context.Context) ([]models.Venue, error) {
	defer s.rlock()()
	out := make([]models.Venue, 0, len(s.data.venues))
	for _, v := range s.data.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	defer s.rlock()()
	v, ok := s.data.venues[id]
	if !ok {
		return nil, models.ErrVenueNotFound
	}
	return &v, nil
}

func (s *Store) CreateVenue(ctx context.Context, v *models.Venue) error {
	defer s.lock()()
	if v.ID == 0 {
		v.ID = s.data.nextVenueID
	}
	if _, exists := s.data.venues[v.ID]; exists {
		return fmt.Errorf("%w: venue %d already exists", models.ErrConflict, v.ID)
	}
	if v.ID >= s.data.nextVenueID {
		s.data.nextVenueID = v.ID + 1
	}
	s.data.venues[v.ID] = *v
	return nil
}

func (s *Store) UpdateVenue(ctx context.Context, v *models.Venue) error {
	defer s.lock()()
	if _, ok := s.data.venues[v.ID]; !ok {
		return models.ErrVenueNotFound
	}
	s.data.venues[v.ID] = *v
	return nil
}

func (s *Store) DeleteVenue(ctx context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.data.venues[id]; !ok {
		return models.ErrVenueNotFound
	}
	delete(s.data.venues, id)
	delete(s.data.settings, id)
	return nil
}

// Settings

func (s *Store) GetSettings(ctx context.Context, venueID int64) (*models.VenueSettings, error) {
	defer s.rlock()()
	st, ok := s.data.settings[venueID]
	if !ok {
		return nil, models.ErrSettingsNotFound
	}
	return st.Clone(), nil
}

func (s *Store) CreateSettings(ctx context.Context, st *models.VenueSettings) error {
	defer s.lock()()
	if _, exists := s.data.settings[st.VenueID]; exists {
		return fmt.Errorf("%w: settings for venue %d already exist", models.ErrConflict, st.VenueID)
	}
	c := st.Clone()
	c.Normalize()
	s.data.settings[st.VenueID] = c
	return nil
}

// ensure returns the live settings record, creating an empty one.
func (s *Store) ensure(venueID int64) *models.VenueSettings {
	st, ok := s.data.settings[venueID]
	if !ok {
		st = models.EmptySettings(venueID)
		s.data.settings[venueID] = st
	}
	return st
}

func (s *Store) ReplaceUnavailableDates(ctx context.Context, venueID int64, dates []string) error {
	defer s.lock()()
	st := s.ensure(venueID)
	st.UnavailableDates = append([]string{}, dates...)
	st.Normalize()
	return nil
}

func (s *Store) ReplaceDailyCapacity(ctx context.Context, venueID int64, capacity map[string]int) error {
	defer s.lock()()
	st := s.ensure(venueID)
	st.DailyCapacity = make(map[string]int, len(capacity))
	for k, v := range capacity {
		st.DailyCapacity[k] = v
	}
	return nil
}

func (s *Store) ReplaceTimeSlots(ctx context.Context, venueID int64, slots map[string][]string) error {
	defer s.lock()()
	st := s.ensure(venueID)
	st.AvailableTimeSlots = make(map[string][]string, len(slots))
	for k, v := range slots {
		st.AvailableTimeSlots[k] = append([]string{}, v...)
	}
	return nil
}

func (s *Store) ToggleUnavailableDate(ctx context.Context, venueID int64, date string) (bool, error) {
	defer s.lock()()
	st := s.ensure(venueID)
	for i, d := range st.UnavailableDates {
		if d == date {
			st.UnavailableDates = append(st.UnavailableDates[:i:i], st.UnavailableDates[i+1:]...)
			return false, nil
		}
	}
	st.UnavailableDates = append(st.UnavailableDates, date)
	st.Normalize()
	return true, nil
}

func (s *Store) UpsertDailyCapacity(ctx context.Context, venueID int64, date string, capacity int) error {
	defer s.lock()()
	s.ensure(venueID).DailyCapacity[date] = capacity
	return nil
}

// Reservations

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	defer s.lock()()
	if _, exists := s.data.reservations[r.ID]; exists {
		return fmt.Errorf("%w: reservation %s already exists", models.ErrConflict, r.ID)
	}
	for _, existing := range s.data.reservations {
		if r.ConfirmationNumber != "" && existing.ConfirmationNumber == r.ConfirmationNumber {
			return fmt.Errorf("%w: confirmation number %s already issued", models.ErrConflict, r.ConfirmationNumber)
		}
	}
	s.data.reservations[r.ID] = *r
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	defer s.rlock()()
	r, ok := s.data.reservations[id]
	if !ok {
		return nil, models.ErrReservationNotFound
	}
	return &r, nil
}

func (s *Store) GetReservationByConfirmation(ctx context.Context, code string) (*models.Reservation, error) {
	defer s.rlock()()
	for _, r := range s.data.reservations {
		if r.ConfirmationNumber == code {
			r := r
			return &r, nil
		}
	}
	return nil, models.ErrReservationNotFound
}

func (s *Store) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	defer s.lock()()
	if _, ok := s.data.reservations[r.ID]; !ok {
		return models.ErrReservationNotFound
	}
	s.data.reservations[r.ID] = *r
	return nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.reservations[id]; !ok {
		return models.ErrReservationNotFound
	}
	delete(s.data.reservations, id)
	return nil
}

func (s *Store) ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	defer s.rlock()()
	out := []models.Reservation{}
	for _, r := range s.data.reservations {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) SumPartySize(ctx context.Context, venueID int64, date string, status models.ReservationStatus) (int, error) {
	defer s.rlock()()
	total := 0
	for _, r := range s.data.reservations {
		if r.VenueID == venueID && r.Date == date && r.Status == status {
			total += r.PartySize
		}
	}
	return total, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()
	if _, exists := s.data.users[u.ID]; exists {
		return fmt.Errorf("%w: user %s already exists", models.ErrConflict, u.ID)
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}
	s.data.users[u.ID] = cloneUser(*u)
	return nil
}

func (s *Store) checkUnique(u *models.User) error {
	for _, existing := range s.data.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.LoginID == u.LoginID {
			return models.ErrDuplicateLogin
		}
		if existing.Email == u.Email {
			return models.ErrDuplicateEmail
		}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.rlock()()
	u, ok := s.data.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) GetUserByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	defer s.rlock()()
	for _, u := range s.data.users {
		if u.LoginID == loginID {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.rlock()()
	for _, u := range s.data.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[u.ID]; !ok {
		return models.ErrUserNotFound
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}
	s.data.users[u.ID] = cloneUser(*u)
	return nil
}
