// Package db is the SQL Store built on bun. The same code serves postgres,
// mysql and sqlite; only upsert syntax differs per dialect.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-reservation/internal/models"
	"ms-reservation/internal/store"
)

type DB struct {
	Bun  *bun.DB
	conn bun.IDB
	inTx bool
}

var _ store.Store = (*DB)(nil)

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, conn: bunDB}
}

// CreateSchema creates every table that does not exist yet. Postgres
// deployments use the SQL migrations instead.
func (d *DB) CreateSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Venue)(nil),
		(*models.Reservation)(nil),
		(*models.User)(nil),
		(*settingsRow)(nil),
		(*unavailableDateRow)(nil),
		(*dailyCapacityRow)(nil),
		(*timeSlotRow)(nil),
	}
	for _, model := range tables {
		if _, err := d.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	if d.inTx {
		return nil
	}
	return d.Bun.Close()
}

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if d.inTx {
		return fn(ctx, d)
	}
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: d.Bun, conn: tx, inTx: true})
	})
	if err != nil {
		return mapErr(err, err)
	}
	return nil
}

func (d *DB) isMySQL() bool {
	return d.Bun.Dialect().Name() == dialect.MySQL
}

// Venues

func (d *DB) ListVenues(ctx context.Context) ([]models.Venue, error) {
	var venues []models.Venue
	err := d.conn.NewSelect().Model(&venues).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrVenueNotFound)
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	return venues, nil
}

func (d *DB) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	var v models.Venue
	err := d.conn.NewSelect().Model(&v).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrVenueNotFound)
	}
	return &v, nil
}

func (d *DB) CreateVenue(ctx context.Context, v *models.Venue) error {
	_, err := d.conn.NewInsert().Model(v).Exec(ctx)
	return mapErr(err, models.ErrVenueNotFound)
}

func (d *DB) UpdateVenue(ctx context.Context, v *models.Venue) error {
	if err := d.requireExists(ctx, (*models.Venue)(nil), "id = ?", v.ID, models.ErrVenueNotFound); err != nil {
		return err
	}
	_, err := d.conn.NewUpdate().Model(v).WherePK().Exec(ctx)
	return mapErr(err, models.ErrVenueNotFound)
}

func (d *DB) DeleteVenue(ctx context.Context, id int64) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		res, err := t.conn.NewDelete().Model((*models.Venue)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return mapErr(err, models.ErrVenueNotFound)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrVenueNotFound
		}
		return t.deleteSettings(ctx, id)
	})
}

func (d *DB) requireExists(ctx context.Context, model interface{}, where string, arg interface{}, notFound error) error {
	exists, err := d.conn.NewSelect().Model(model).Where(where, arg).Exists(ctx)
	if err != nil {
		return mapErr(err, notFound)
	}
	if !exists {
		return notFound
	}
	return nil
}

// Settings

func (d *DB) GetSettings(ctx context.Context, venueID int64) (*models.VenueSettings, error) {
	if err := d.requireExists(ctx, (*settingsRow)(nil), "venue_id = ?", venueID, models.ErrSettingsNotFound); err != nil {
		return nil, err
	}

	s := models.EmptySettings(venueID)

	var dates []unavailableDateRow
	if err := d.conn.NewSelect().Model(&dates).Where("venue_id = ?", venueID).Order("date_key ASC").Scan(ctx); err != nil {
		return nil, mapErr(err, models.ErrSettingsNotFound)
	}
	for _, row := range dates {
		s.UnavailableDates = append(s.UnavailableDates, row.DateKey)
	}

	var caps []dailyCapacityRow
	if err := d.conn.NewSelect().Model(&caps).Where("venue_id = ?", venueID).Scan(ctx); err != nil {
		return nil, mapErr(err, models.ErrSettingsNotFound)
	}
	for _, row := range caps {
		s.DailyCapacity[row.DateKey] = row.Capacity
	}

	var slots []timeSlotRow
	if err := d.conn.NewSelect().Model(&slots).Where("venue_id = ?", venueID).Scan(ctx); err != nil {
		return nil, mapErr(err, models.ErrSettingsNotFound)
	}
	for _, row := range slots {
		s.AvailableTimeSlots[row.DateKey] = splitSlots(row.Slots)
	}
	return s, nil
}

func splitSlots(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (d *DB) ensureSettings(ctx context.Context, venueID int64) error {
	_, err := d.conn.NewInsert().Model(&settingsRow{VenueID: venueID}).Ignore().Exec(ctx)
	return mapErr(err, models.ErrSettingsNotFound)
}

func (d *DB) deleteSettings(ctx context.Context, venueID int64) error {
	for _, model := range []interface{}{
		(*unavailableDateRow)(nil),
		(*dailyCapacityRow)(nil),
		(*timeSlotRow)(nil),
		(*settingsRow)(nil),
	} {
		if _, err := d.conn.NewDelete().Model(model).Where("venue_id = ?", venueID).Exec(ctx); err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
	}
	return nil
}

func (d *DB) CreateSettings(ctx context.Context, s *models.VenueSettings) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if _, err := t.conn.NewInsert().Model(&settingsRow{VenueID: s.VenueID}).Exec(ctx); err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
		if err := t.insertDates(ctx, s.VenueID, s.UnavailableDates); err != nil {
			return err
		}
		if err := t.insertCapacities(ctx, s.VenueID, s.DailyCapacity); err != nil {
			return err
		}
		return t.insertSlots(ctx, s.VenueID, s.AvailableTimeSlots)
	})
}

func (d *DB) insertDates(ctx context.Context, venueID int64, dates []string) error {
	seen := map[string]bool{}
	rows := make([]unavailableDateRow, 0, len(dates))
	for _, date := range dates {
		if !seen[date] {
			seen[date] = true
			rows = append(rows, unavailableDateRow{VenueID: venueID, DateKey: date})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := d.conn.NewInsert().Model(&rows).Exec(ctx)
	return mapErr(err, models.ErrSettingsNotFound)
}

func (d *DB) insertCapacities(ctx context.Context, venueID int64, capacity map[string]int) error {
	if len(capacity) == 0 {
		return nil
	}
	rows := make([]dailyCapacityRow, 0, len(capacity))
	for date, c := range capacity {
		rows = append(rows, dailyCapacityRow{VenueID: venueID, DateKey: date, Capacity: c})
	}
	_, err := d.conn.NewInsert().Model(&rows).Exec(ctx)
	return mapErr(err, models.ErrSettingsNotFound)
}

func (d *DB) insertSlots(ctx context.Context, venueID int64, slots map[string][]string) error {
	if len(slots) == 0 {
		return nil
	}
	rows := make([]timeSlotRow, 0, len(slots))
	for date, s := range slots {
		rows = append(rows, timeSlotRow{VenueID: venueID, DateKey: date, Slots: strings.Join(s, ",")})
	}
	_, err := d.conn.NewInsert().Model(&rows).Exec(ctx)
	return mapErr(err, models.ErrSettingsNotFound)
}

func (d *DB) ReplaceUnavailableDates(ctx context.Context, venueID int64, dates []string) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.ensureSettings(ctx, venueID); err != nil {
			return err
		}
		if _, err := t.conn.NewDelete().Model((*unavailableDateRow)(nil)).Where("venue_id = ?", venueID).Exec(ctx); err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
		return t.insertDates(ctx, venueID, dates)
	})
}

func (d *DB) ReplaceDailyCapacity(ctx context.Context, venueID int64, capacity map[string]int) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.ensureSettings(ctx, venueID); err != nil {
			return err
		}
		if _, err := t.conn.NewDelete().Model((*dailyCapacityRow)(nil)).Where("venue_id = ?", venueID).Exec(ctx); err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
		return t.insertCapacities(ctx, venueID, capacity)
	})
}

func (d *DB) ReplaceTimeSlots(ctx context.Context, venueID int64, slots map[string][]string) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.ensureSettings(ctx, venueID); err != nil {
			return err
		}
		if _, err := t.conn.NewDelete().Model((*timeSlotRow)(nil)).Where("venue_id = ?", venueID).Exec(ctx); err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
		return t.insertSlots(ctx, venueID, slots)
	})
}

func (d *DB) ToggleUnavailableDate(ctx context.Context, venueID int64, date string) (bool, error) {
	var nowUnavailable bool
	err := d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.ensureSettings(ctx, venueID); err != nil {
			return err
		}
		res, err := t.conn.NewDelete().Model((*unavailableDateRow)(nil)).
			Where("venue_id = ?", venueID).
			Where("date_key = ?", date).
			Exec(ctx)
		if err != nil {
			return mapErr(err, models.ErrSettingsNotFound)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			nowUnavailable = false
			return nil
		}
		nowUnavailable = true
		return t.insertDates(ctx, venueID, []string{date})
	})
	return nowUnavailable, err
}

func (d *DB) UpsertDailyCapacity(ctx context.Context, venueID int64, date string, capacity int) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.ensureSettings(ctx, venueID); err != nil {
			return err
		}
		row := &dailyCapacityRow{VenueID: venueID, DateKey: date, Capacity: capacity}
		q := t.conn.NewInsert().Model(row)
		if t.isMySQL() {
			q = q.On("DUPLICATE KEY UPDATE").Set("capacity = VALUES(capacity)")
		} else {
			q = q.On("CONFLICT (venue_id, date_key) DO UPDATE").Set("capacity = EXCLUDED.capacity")
		}
		_, err := q.Exec(ctx)
		return mapErr(err, models.ErrSettingsNotFound)
	})
}

// Reservations

func (d *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	_, err := d.conn.NewInsert().Model(r).Exec(ctx)
	return mapErr(err, models.ErrReservationNotFound)
}

func (d *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	err := d.conn.NewSelect().Model(&r).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrReservationNotFound)
	}
	return &r, nil
}

func (d *DB) GetReservationByConfirmation(ctx context.Context, code string) (*models.Reservation, error) {
	var r models.Reservation
	err := d.conn.NewSelect().Model(&r).Where("confirmation_number = ?", code).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrReservationNotFound)
	}
	return &r, nil
}

func (d *DB) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	if err := d.requireExists(ctx, (*models.Reservation)(nil), "id = ?", r.ID, models.ErrReservationNotFound); err != nil {
		return err
	}
	_, err := d.conn.NewUpdate().
		Model(r).
		Column("date_key", "time_slot", "party_size", "guest_name", "guest_phone", "status", "updated_at").
		WherePK().
		Exec(ctx)
	return mapErr(err, models.ErrReservationNotFound)
}

func (d *DB) DeleteReservation(ctx context.Context, id string) error {
	res, err := d.conn.NewDelete().Model((*models.Reservation)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapErr(err, models.ErrReservationNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrReservationNotFound
	}
	return nil
}

func (d *DB) ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	var out []models.Reservation
	q := d.conn.NewSelect().Model(&out)
	if f.VenueID != 0 {
		q = q.Where("venue_id = ?", f.VenueID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Date != "" {
		q = q.Where("date_key = ?", f.Date)
	}
	if f.FromDate != "" {
		q = q.Where("date_key >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		q = q.Where("date_key <= ?", f.ToDate)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	err := q.Order("date_key ASC", "time_slot ASC", "created_at ASC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrReservationNotFound)
	}
	if out == nil {
		out = []models.Reservation{}
	}
	return out, nil
}

func (d *DB) SumPartySize(ctx context.Context, venueID int64, date string, status models.ReservationStatus) (int, error) {
	var total int
	err := d.conn.NewSelect().
		Model((*models.Reservation)(nil)).
		ColumnExpr("COALESCE(SUM(party_size), 0)").
		Where("venue_id = ?", venueID).
		Where("date_key = ?", date).
		Where("status = ?", status).
		Scan(ctx, &total)
	if err != nil {
		return 0, mapErr(err, models.ErrReservationNotFound)
	}
	return total, nil
}

// Users

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.checkUnique(ctx, u); err != nil {
			return err
		}
		_, err := t.conn.NewInsert().Model(u).Exec(ctx)
		return mapErr(err, models.ErrUserNotFound)
	})
}

func (d *DB) checkUnique(ctx context.Context, u *models.User) error {
	taken, err := d.conn.NewSelect().Model((*models.User)(nil)).
		Where("login_id = ?", u.LoginID).Where("id <> ?", u.ID).Exists(ctx)
	if err != nil {
		return mapErr(err, models.ErrUserNotFound)
	}
	if taken {
		return models.ErrDuplicateLogin
	}
	taken, err = d.conn.NewSelect().Model((*models.User)(nil)).
		Where("email = ?", u.Email).Where("id <> ?", u.ID).Exists(ctx)
	if err != nil {
		return mapErr(err, models.ErrUserNotFound)
	}
	if taken {
		return models.ErrDuplicateEmail
	}
	return nil
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return d.getUserWhere(ctx, "id = ?", id)
}

func (d *DB) GetUserByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	return d.getUserWhere(ctx, "login_id = ?", loginID)
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.getUserWhere(ctx, "email = ?", email)
}

func (d *DB) getUserWhere(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var u models.User
	err := d.conn.NewSelect().Model(&u).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapErr(err, models.ErrUserNotFound)
	}
	return &u, nil
}

func (d *DB) UpdateUser(ctx context.Context, u *models.User) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*DB)
		if err := t.requireExists(ctx, (*models.User)(nil), "id = ?", u.ID, models.ErrUserNotFound); err != nil {
			return err
		}
		if err := t.checkUnique(ctx, u); err != nil {
			return err
		}
		_, err := t.conn.NewUpdate().Model(u).Column("email", "name", "phone", "password_hash").WherePK().Exec(ctx)
		return mapErr(err, models.ErrUserNotFound)
	})
}
