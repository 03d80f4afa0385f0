package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fairway/internal/models"
)

const reservationColumns = `id, reference, date(date), start_time, lane, name, phone, email, club, gender, age, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	r := &models.Reservation{}
	var dateStr string
	err := row.Scan(
		&r.ID, &r.Reference, &dateStr, &r.StartTime, &r.Lane,
		&r.Name, &r.Phone, &r.Email, &r.Club, &r.Gender, &r.Age,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reservation date %s: %w", dateStr, err)
	}
	return r, nil
}

// CreateReservation inserts one reservation without any availability check.
// Submission uses CreateReservationsChecked; this path exists for operator
// tooling and tests.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, insertReservationQuery,
		r.Reference, r.Date.Format(models.DateLayout), r.StartTime, string(r.Lane),
		r.Name, r.Phone, r.Email, r.Club, r.Gender, r.Age, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

const insertReservationQuery = `INSERT INTO reservations (
			reference, date, start_time, lane, name, phone, email,
			club, gender, age, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateReservationsChecked inserts the whole batch inside one transaction,
// after re-reading every affected day and passing the fresh rows to check.
// A non-nil check error aborts the transaction, so either all rows commit or
// none do. SQLite's single writer makes the read and the insert atomic
// against other local submissions; cross-process races stay best-effort.
func (db *DB) CreateReservationsChecked(ctx context.Context, reservations []*models.Reservation, check func(existing []*models.Reservation) error) error {
	if len(reservations) == 0 {
		return errors.New("empty reservation batch")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	start, end := batchDateRange(reservations)
	existing, err := queryReservations(ctx, tx,
		`SELECT `+reservationColumns+` FROM reservations WHERE date(date) >= ? AND date(date) <= ? ORDER BY date, start_time, id`,
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return fmt.Errorf("failed to re-read reservations in tx: %w", err)
	}

	if check != nil {
		if err := check(existing); err != nil {
			return err
		}
	}

	now := time.Now()
	for _, r := range reservations {
		result, err := tx.ExecContext(ctx, insertReservationQuery,
			r.Reference, r.Date.Format(models.DateLayout), r.StartTime, string(r.Lane),
			r.Name, r.Phone, r.Email, r.Club, r.Gender, r.Age, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation in tx: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}
		r.ID = id
		r.CreatedAt = now
		r.UpdatedAt = now
	}

	return tx.Commit()
}

func batchDateRange(reservations []*models.Reservation) (start, end time.Time) {
	start, end = reservations[0].Date, reservations[0].Date
	for _, r := range reservations[1:] {
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
	}
	return start, end
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryReservations(ctx context.Context, q queryer, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// GetReservationsByDateRange returns reservations with start <= date <= end.
func (db *DB) GetReservationsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Reservation, error) {
	reservations, err := queryReservations(ctx, db,
		`SELECT `+reservationColumns+` FROM reservations WHERE date(date) >= ? AND date(date) <= ? ORDER BY date, start_time, id`,
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date range: %w", err)
	}
	return reservations, nil
}

// GetReservationsForDate returns every reservation on the calendar day.
func (db *DB) GetReservationsForDate(ctx context.Context, date time.Time) ([]*models.Reservation, error) {
	return db.GetReservationsByDateRange(ctx, date, date)
}

// GetReservation returns one reservation by primary key.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// GetReservationsByContact returns reservations whose phone matches
// digits-only with suffix tolerance or whose email matches case-insensitively.
// The SQL narrows by exact email only; phone tolerance is applied in Go since
// suffix matching does not map onto an indexed predicate.
func (db *DB) GetReservationsByContact(ctx context.Context, phone, email string) ([]*models.Reservation, error) {
	reservations, err := queryReservations(ctx, db,
		`SELECT `+reservationColumns+` FROM reservations ORDER BY date, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by contact: %w", err)
	}

	var matched []*models.Reservation
	for _, r := range reservations {
		if contactMatches(r, phone, email) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func contactMatches(r *models.Reservation, phone, email string) bool {
	if phone != "" && models.PhonesMatch(r.Phone, phone) {
		return true
	}
	return email != "" && strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(email))
}

// DeleteReservation removes one reservation by primary key.
func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDailyReservations groups a date range by day key for export.
func (db *DB) GetDailyReservations(ctx context.Context, startDate, endDate time.Time) (map[string][]*models.Reservation, error) {
	reservations, err := db.GetReservationsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Reservation)
	for _, r := range reservations {
		dateKey := r.Date.Format(models.DateLayout)
		daily[dateKey] = append(daily[dateKey], r)
	}
	return daily, nil
}
