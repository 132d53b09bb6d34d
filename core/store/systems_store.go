package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SystemActive   = "active"
	SystemFailure  = "failure"
	SystemBackup   = "backup"
	SystemInactive = "inactive"
)

func IsValidSystemStatus(status string) bool {
	switch status {
	case SystemActive, SystemFailure, SystemBackup, SystemInactive:
		return true
	}
	return false
}

type System struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Frequency   string    `json:"frequency"`
	Description string    `json:"description"`
	LastCheck   time.Time `json:"last_check"`
	CreatedAt   time.Time `json:"created_at"`
}

type SystemUpdate struct {
	Status      *string
	Location    *string
	Frequency   *string
	Description *string
}

// SwitchParams carries everything the two-system failover needs; the whole
// flip (both status writes, the tracking incident, the audit entry) commits
// or rolls back as one transaction.
type SwitchParams struct {
	SourceID  int64
	TargetID  int64
	Reason    string
	ActorID   int64
	IPAddress string
}

type SwitchResult struct {
	Source     System `json:"source"`
	Target     System `json:"target"`
	IncidentID int64  `json:"incident_id"`
}

type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SystemStats struct {
	Incidents []SeverityCount `json:"incidents"`
	Logs      []DailyCount    `json:"logs"`
}

type SystemsStore interface {
	Create(ctx context.Context, sys *System) (int64, error)
	Get(ctx context.Context, id int64) (*System, error)
	List(ctx context.Context) ([]System, error)
	UpdateFields(ctx context.Context, id int64, upd SystemUpdate) (*System, error)
	Switch(ctx context.Context, p SwitchParams) (*SwitchResult, error)
	Stats(ctx context.Context, id int64) (*SystemStats, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type systemsStore struct {
	db *DB
}

func NewSystemsStore(db *DB) SystemsStore {
	return &systemsStore{db: db}
}

const systemColumns = `id, name, type, status, location, frequency, description, last_check, created_at`

func (s *systemsStore) Create(ctx context.Context, sys *System) (int64, error) {
	now := time.Now().UTC()
	if sys.Status == "" {
		sys.Status = SystemInactive
	}
	id, err := s.db.insert(ctx, `
		INSERT INTO systems(name, type, status, location, frequency, description, last_check, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(sys.Name), strings.TrimSpace(sys.Type), sys.Status, sys.Location, sys.Frequency, sys.Description, now, now)
	if err != nil {
		return 0, err
	}
	sys.ID = id
	sys.LastCheck = now
	sys.CreatedAt = now
	return id, nil
}

func (s *systemsStore) Get(ctx context.Context, id int64) (*System, error) {
	row := s.db.queryRow(ctx, `SELECT `+systemColumns+` FROM systems WHERE id=?`, id)
	return scanSystem(row)
}

func (s *systemsStore) List(ctx context.Context) ([]System, error) {
	rows, err := s.db.query(ctx, `SELECT `+systemColumns+` FROM systems ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []System
	for rows.Next() {
		var sys System
		if err := rows.Scan(&sys.ID, &sys.Name, &sys.Type, &sys.Status, &sys.Location, &sys.Frequency, &sys.Description, &sys.LastCheck, &sys.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, sys)
	}
	return res, rows.Err()
}

// UpdateFields applies only the provided fields and always refreshes
// last_check. Returns nil when the system does not exist.
func (s *systemsStore) UpdateFields(ctx context.Context, id int64, upd SystemUpdate) (*System, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	sets := []string{"last_check=?"}
	args := []any{now}
	if upd.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *upd.Status)
	}
	if upd.Location != nil {
		sets = append(sets, "location=?")
		args = append(args, strings.TrimSpace(*upd.Location))
	}
	if upd.Frequency != nil {
		sets = append(sets, "frequency=?")
		args = append(args, strings.TrimSpace(*upd.Frequency))
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, strings.TrimSpace(*upd.Description))
	}
	args = append(args, id)
	if _, err := s.db.exec(ctx, `UPDATE systems SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *systemsStore) Switch(ctx context.Context, p SwitchParams) (*SwitchResult, error) {
	tx, err := s.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	source, err := scanSystem(tx.queryRow(ctx, `SELECT `+systemColumns+` FROM systems WHERE id=?`, p.SourceID))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	target, err := scanSystem(tx.queryRow(ctx, `SELECT `+systemColumns+` FROM systems WHERE id=?`, p.TargetID))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if source == nil || target == nil {
		tx.Rollback()
		return nil, sql.ErrNoRows
	}
	now := time.Now().UTC()
	if _, err := tx.exec(ctx, `UPDATE systems SET status=?, last_check=? WHERE id=?`, SystemBackup, now, source.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := tx.exec(ctx, `UPDATE systems SET status=?, last_check=? WHERE id=?`, SystemActive, now, target.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	description := strings.TrimSpace(p.Reason)
	if description == "" {
		description = "Basculement système effectué"
	}
	incidentID, err := tx.insert(ctx, `
		INSERT INTO incidents(title, description, system_id, severity, status, reported_by, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		fmt.Sprintf("Basculement %s → %s", source.Name, target.Name), description, source.ID,
		SeverityHigh, IncidentInProgress, p.ActorID, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	details := map[string]any{"from": source.Name, "to": target.Name, "reason": p.Reason}
	if err := appendLogTx(ctx, tx, ActionSystemSwitch, "system", source.ID, &p.ActorID, details, p.IPAddress, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	source.Status = SystemBackup
	source.LastCheck = now
	target.Status = SystemActive
	target.LastCheck = now
	return &SwitchResult{Source: *source, Target: *target, IncidentID: incidentID}, nil
}

func (s *systemsStore) Stats(ctx context.Context, id int64) (*SystemStats, error) {
	stats := &SystemStats{}
	rows, err := s.db.query(ctx, `
		SELECT severity, COUNT(*) FROM incidents WHERE system_id=? GROUP BY severity`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc SeverityCount
		if err := rows.Scan(&sc.Severity, &sc.Count); err != nil {
			return nil, err
		}
		stats.Incidents = append(stats.Incidents, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logRows, err := s.db.query(ctx, `
		SELECT `+dateExpr(s.db.driver, "created_at")+` AS day, COUNT(*)
		FROM logs WHERE entity_id=? AND entity_type=?
		GROUP BY day ORDER BY day DESC LIMIT 30`, id, "system")
	if err != nil {
		return nil, err
	}
	defer logRows.Close()
	for logRows.Next() {
		var dc DailyCount
		if err := logRows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		stats.Logs = append(stats.Logs, dc)
	}
	return stats, logRows.Err()
}

func (s *systemsStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.query(ctx, `SELECT status, COUNT(*) FROM systems GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

func scanSystem(row *sql.Row) (*System, error) {
	var sys System
	if err := row.Scan(&sys.ID, &sys.Name, &sys.Type, &sys.Status, &sys.Location, &sys.Frequency, &sys.Description, &sys.LastCheck, &sys.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sys, nil
}

// dateExpr renders a day-granularity expression per dialect.
func dateExpr(driver, column string) string {
	if driver == DriverPostgres {
		return `to_char(` + column + `, 'YYYY-MM-DD')`
	}
	return `DATE(` + column + `)`
}
