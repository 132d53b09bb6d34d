package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	IncidentOpen       = "open"
	IncidentInProgress = "in_progress"
	IncidentResolved   = "resolved"
	IncidentClosed     = "closed"
)

func IsValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func IsValidIncidentStatus(s string) bool {
	switch s {
	case IncidentOpen, IncidentInProgress, IncidentResolved, IncidentClosed:
		return true
	}
	return false
}

type Incident struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SystemID    *int64     `json:"system_id"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	ReportedBy  *int64     `json:"reported_by"`
	ResolvedBy  *int64     `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	CreatedAt   time.Time  `json:"created_at"`

	SystemName       string `json:"system_name,omitempty"`
	ReportedByName   string `json:"reported_by_name,omitempty"`
	ResolvedByName   string `json:"resolved_by_name,omitempty"`
}

type IncidentUpdate struct {
	Status      *string
	Severity    *string
	Description *string
	// ResolverID is recorded when the update moves the incident to a
	// terminal status.
	ResolverID int64
}

type IncidentFilter struct {
	Status   string
	Severity string
	SystemID int64
	Limit    int
}

type StatsSummary struct {
	Total      int             `json:"total"`
	BySeverity map[string]int  `json:"by_severity"`
	ByStatus   map[string]int  `json:"by_status"`
	BySystem   []SystemBucket  `json:"by_system"`
	Trend      []DailyCount    `json:"trend"`
}

type SystemBucket struct {
	SystemID   int64  `json:"system_id"`
	SystemName string `json:"system_name"`
	Count      int    `json:"count"`
}

type IncidentsStore interface {
	Create(ctx context.Context, inc *Incident) (int64, error)
	Get(ctx context.Context, id int64) (*Incident, error)
	List(ctx context.Context, f IncidentFilter) ([]Incident, error)
	Update(ctx context.Context, id int64, upd IncidentUpdate) (*Incident, error)
	StatsSummary(ctx context.Context) (*StatsSummary, error)
	FindOpenByTitle(ctx context.Context, systemID int64, title string) (*Incident, error)
}

type incidentsStore struct {
	db *DB
}

func NewIncidentsStore(db *DB) IncidentsStore {
	return &incidentsStore{db: db}
}

func (s *incidentsStore) Create(ctx context.Context, inc *Incident) (int64, error) {
	now := time.Now().UTC()
	if inc.Status == "" {
		inc.Status = IncidentOpen
	}
	id, err := s.db.insert(ctx, `
		INSERT INTO incidents(title, description, system_id, severity, status, reported_by, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		strings.TrimSpace(inc.Title), inc.Description, nullableID(inc.SystemID), inc.Severity, inc.Status,
		nullableID(inc.ReportedBy), now)
	if err != nil {
		return 0, err
	}
	inc.ID = id
	inc.CreatedAt = now
	return id, nil
}

const incidentSelect = `
	SELECT i.id, i.title, i.description, i.system_id, i.severity, i.status,
	       i.reported_by, i.resolved_by, i.resolved_at, i.created_at,
	       COALESCE(s.name, ''), COALESCE(rep.full_name, ''), COALESCE(res.full_name, '')
	FROM incidents i
	LEFT JOIN systems s ON s.id = i.system_id
	LEFT JOIN users rep ON rep.id = i.reported_by
	LEFT JOIN users res ON res.id = i.resolved_by`

func (s *incidentsStore) Get(ctx context.Context, id int64) (*Incident, error) {
	rows, err := s.db.query(ctx, incidentSelect+` WHERE i.id=?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	inc, err := scanIncident(rows)
	if err != nil {
		return nil, err
	}
	return inc, rows.Err()
}

func (s *incidentsStore) List(ctx context.Context, f IncidentFilter) ([]Incident, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "i.status=?")
		args = append(args, f.Status)
	}
	if f.Severity != "" {
		where = append(where, "i.severity=?")
		args = append(args, f.Severity)
	}
	if f.SystemID != 0 {
		where = append(where, "i.system_id=?")
		args = append(args, f.SystemID)
	}
	q := incidentSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += ` ORDER BY i.created_at DESC, i.id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := s.db.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *inc)
	}
	return res, rows.Err()
}

// Update applies only the provided fields. Moving to resolved or closed
// stamps the resolver and resolution time; moving back to open or
// in_progress clears both.
func (s *incidentsStore) Update(ctx context.Context, id int64, upd IncidentUpdate) (*Incident, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	var (
		sets []string
		args []any
	)
	if upd.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *upd.Status)
		switch *upd.Status {
		case IncidentResolved, IncidentClosed:
			sets = append(sets, "resolved_by=?", "resolved_at=?")
			args = append(args, upd.ResolverID, time.Now().UTC())
		default:
			sets = append(sets, "resolved_by=NULL", "resolved_at=NULL")
		}
	}
	if upd.Severity != nil {
		sets = append(sets, "severity=?")
		args = append(args, *upd.Severity)
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *upd.Description)
	}
	if len(sets) == 0 {
		return existing, nil
	}
	args = append(args, id)
	if _, err := s.db.exec(ctx, `UPDATE incidents SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *incidentsStore) StatsSummary(ctx context.Context) (*StatsSummary, error) {
	out := &StatsSummary{
		BySeverity: map[string]int{},
		ByStatus:   map[string]int{},
	}
	if err := s.db.queryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&out.Total); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT severity, COUNT(*) FROM incidents GROUP BY severity`, out.BySeverity); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT status, COUNT(*) FROM incidents GROUP BY status`, out.ByStatus); err != nil {
		return nil, err
	}
	rows, err := s.db.query(ctx, `
		SELECT s.id, s.name, COUNT(i.id)
		FROM systems s
		LEFT JOIN incidents i ON i.system_id = s.id
		GROUP BY s.id, s.name ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b SystemBucket
		if err := rows.Scan(&b.SystemID, &b.SystemName, &b.Count); err != nil {
			return nil, err
		}
		out.BySystem = append(out.BySystem, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	trendRows, err := s.db.query(ctx, `
		SELECT `+dateExpr(s.db.driver, "created_at")+` AS day, COUNT(*)
		FROM incidents WHERE created_at >= ?
		GROUP BY day ORDER BY day DESC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer trendRows.Close()
	for trendRows.Next() {
		var dc DailyCount
		if err := trendRows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out.Trend = append(out.Trend, dc)
	}
	return out, trendRows.Err()
}

// FindOpenByTitle locates a non-terminal incident for a system with an
// exact title match, used to avoid duplicate reminder incidents.
func (s *incidentsStore) FindOpenByTitle(ctx context.Context, systemID int64, title string) (*Incident, error) {
	rows, err := s.db.query(ctx, incidentSelect+`
		WHERE i.system_id=? AND i.title=? AND i.status IN (?,?)
		ORDER BY i.id DESC`, systemID, title, IncidentOpen, IncidentInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	inc, err := scanIncident(rows)
	if err != nil {
		return nil, err
	}
	return inc, rows.Err()
}

func (s *incidentsStore) groupCount(ctx context.Context, q string, dest map[string]int) error {
	rows, err := s.db.query(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

func scanIncident(rows *sql.Rows) (*Incident, error) {
	var (
		inc                  Incident
		systemID, repBy, resBy sql.NullInt64
		resolvedAt           sql.NullTime
	)
	if err := rows.Scan(&inc.ID, &inc.Title, &inc.Description, &systemID, &inc.Severity, &inc.Status,
		&repBy, &resBy, &resolvedAt, &inc.CreatedAt,
		&inc.SystemName, &inc.ReportedByName, &inc.ResolvedByName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	inc.SystemID = sqlNullToPtr(systemID)
	inc.ReportedBy = sqlNullToPtr(repBy)
	inc.ResolvedBy = sqlNullToPtr(resBy)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		inc.ResolvedAt = &t
	}
	return &inc, nil
}
