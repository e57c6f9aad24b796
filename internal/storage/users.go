package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const userCols = "id, username, password_hash, email, first_name, last_name, created_at, last_login"

func scanUser(row *sql.Row) (User, error) {
	var (
		u                         User
		email, first, last, login sql.NullString
		created                   string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &first, &last, &created, &login)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Email = strOrEmpty(email)
	u.FirstName = strOrEmpty(first)
	u.LastName = strOrEmpty(last)
	u.CreatedAt = parseTime(created)
	u.LastLogin = parseTime(strOrEmpty(login))
	return u, nil
}

func (s *DB) CreateUser(ctx context.Context, u User) (int64, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, nullStr(u.Email), nullStr(u.FirstName), nullStr(u.LastName), fmtTime(u.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DB) UserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id = ?", id))
}

func (s *DB) UserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE username = ?", username))
}

func (s *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", fmtTime(at), id)
	return err
}
