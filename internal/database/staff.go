// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// CreateStaffUser inserts a staff account. Used by the bootstrap path that
// seeds the initial admin and by operators adding announcers.
func (db *DB) CreateStaffUser(ctx context.Context, username, name, role, passwordHash string) (*models.StaffUser, error) {
	start := time.Now()

	staff := &models.StaffUser{
		ID:           uuid.New(),
		Username:     username,
		Name:         name,
		Role:         role,
		PasswordHash: passwordHash,
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO staff_users (id, username, name, role, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		staff.ID, staff.Username, staff.Name, staff.Role, staff.PasswordHash, time.Now().UTC(),
	)
	metrics.ObserveDBQuery("create_staff", start, err)
	if err != nil {
		return nil, fmt.Errorf("insert staff user: %w", err)
	}
	return staff, nil
}

// GetStaffByUsername returns a staff account for login, or ErrStaffNotFound.
func (db *DB) GetStaffByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, name, role, password_hash
		   FROM staff_users WHERE username = ?`, username)

	staff, err := scanStaff(row)
	metrics.ObserveDBQuery("get_staff_by_username", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staff by username: %w", err)
	}
	return staff, nil
}

// GetStaffByID returns a staff account, or ErrStaffNotFound.
func (db *DB) GetStaffByID(ctx context.Context, id string) (*models.StaffUser, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, name, role, password_hash
		   FROM staff_users WHERE id = ?`, id)

	staff, err := scanStaff(row)
	metrics.ObserveDBQuery("get_staff_by_id", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staff by id: %w", err)
	}
	return staff, nil
}

// CountStaff returns the number of staff accounts, used to decide whether
// the bootstrap admin needs seeding.
func (db *DB) CountStaff(ctx context.Context) (int, error) {
	start := time.Now()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM staff_users`).Scan(&count)
	metrics.ObserveDBQuery("count_staff", start, err)
	if err != nil {
		return 0, fmt.Errorf("count staff users: %w", err)
	}
	return count, nil
}

func scanStaff(row rowScanner) (*models.StaffUser, error) {
	var u models.StaffUser
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Role, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
