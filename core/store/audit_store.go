package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

const (
	ActionLogin              = "LOGIN"
	ActionRegister           = "REGISTER"
	ActionCreateUser         = "CREATE_USER"
	ActionUpdateUser         = "UPDATE_USER"
	ActionDeleteUser         = "DELETE_USER"
	ActionUpdateSystem       = "UPDATE_SYSTEM"
	ActionSystemSwitch       = "SYSTEM_SWITCH"
	ActionCreateIncident     = "CREATE_INCIDENT"
	ActionUpdateIncident     = "UPDATE_INCIDENT"
	ActionCreateScenario     = "CREATE_SCENARIO"
	ActionExecuteScenario    = "EXECUTE_SCENARIO"
	ActionSystemCheckOverdue = "SYSTEM_CHECK_OVERDUE"
)

type AuditRecord struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *int64         `json:"entity_id"`
	UserID     *int64         `json:"user_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`

	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type AuditFilter struct {
	Action     string
	EntityType string
	UserID     int64
	Limit      int
}

type AuditStore interface {
	Append(ctx context.Context, rec *AuditRecord) error
	List(ctx context.Context, f AuditFilter) ([]AuditRecord, error)
}

type auditStore struct {
	db           *DB
	defaultLimit int
	maxLimit     int
}

func NewAuditStore(db *DB, defaultLimit, maxLimit int) AuditStore {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	return &auditStore{db: db, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (s *auditStore) Append(ctx context.Context, rec *AuditRecord) error {
	details, err := marshalDetails(rec.Details)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	id, err := s.db.insert(ctx, `
		INSERT INTO logs(action, entity_type, entity_id, user_id, details, ip_address, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		rec.Action, rec.EntityType, nullableID(rec.EntityID), nullableID(rec.UserID), details, rec.IPAddress, now)
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

func (s *auditStore) List(ctx context.Context, f AuditFilter) ([]AuditRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, "l.action=?")
		args = append(args, f.Action)
	}
	if f.EntityType != "" {
		where = append(where, "l.entity_type=?")
		args = append(args, f.EntityType)
	}
	if f.UserID != 0 {
		where = append(where, "l.user_id=?")
		args = append(args, f.UserID)
	}
	q := `
		SELECT l.id, l.action, l.entity_type, l.entity_id, l.user_id, l.details, l.ip_address, l.created_at,
		       COALESCE(u.username, ''), COALESCE(u.full_name, '')
		FROM logs l
		LEFT JOIN users u ON u.id = l.user_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	q += ` ORDER BY l.created_at DESC, l.id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := s.db.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuditRecord
	for rows.Next() {
		var (
			rec              AuditRecord
			entityID, userID sql.NullInt64
			details          string
		)
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.EntityType, &entityID, &userID, &details,
			&rec.IPAddress, &rec.CreatedAt, &rec.Username, &rec.FullName); err != nil {
			return nil, err
		}
		rec.EntityID = sqlNullToPtr(entityID)
		rec.UserID = sqlNullToPtr(userID)
		if details != "" {
			if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
				return nil, err
			}
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// appendLogTx writes an audit entry inside an already-open transaction so
// the entry commits or rolls back with the operation it describes.
func appendLogTx(ctx context.Context, tx *Tx, action, entityType string, entityID int64, userID *int64, details map[string]any, ip string, at time.Time) error {
	payload, err := marshalDetails(details)
	if err != nil {
		return err
	}
	_, err = tx.exec(ctx, `
		INSERT INTO logs(action, entity_type, entity_id, user_id, details, ip_address, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		action, entityType, entityID, nullableID(userID), payload, ip, at)
	return err
}

func marshalDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
