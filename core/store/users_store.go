package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleATSEP = "atsep"
)

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleATSEP
}

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

type UserUpdate struct {
	FullName     *string
	Email        *string
	PasswordHash *string
}

type UsersStore interface {
	Create(ctx context.Context, u *User) (int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type usersStore struct {
	db *DB
}

func NewUsersStore(db *DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, password, full_name, COALESCE(email, ''), role, created_at, last_login`

func (s *usersStore) Create(ctx context.Context, u *User) (int64, error) {
	now := time.Now().UTC()
	id, err := s.db.insert(ctx, `
		INSERT INTO users(username, password, full_name, email, role, created_at)
		VALUES(?,?,?,?,?,?)`,
		strings.TrimSpace(u.Username), u.PasswordHash, strings.TrimSpace(u.FullName), strings.TrimSpace(u.Email), u.Role, now)
	if err != nil {
		return 0, err
	}
	u.ID = id
	u.CreatedAt = now
	return id, nil
}

func (s *usersStore) Get(ctx context.Context, id int64) (*User, error) {
	row := s.db.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, strings.TrimSpace(username))
	return scanUser(row)
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *usersStore) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	var sets []string
	var args []any
	if upd.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, strings.TrimSpace(*upd.FullName))
	}
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.TrimSpace(*upd.Email))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password=?")
		args = append(args, *upd.PasswordHash)
	}
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}
	args = append(args, id)
	if _, err := s.db.exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *usersStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.exec(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *usersStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.exec(ctx, `UPDATE users SET last_login=? WHERE id=?`, at.UTC(), id)
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}
