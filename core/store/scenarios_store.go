package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

func IsValidPriority(p string) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Scenario struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	SourceSystemID *int64    `json:"source_system_id"`
	TargetSystemID *int64    `json:"target_system_id"`
	Steps          []string  `json:"steps"`
	EstimatedTime  int       `json:"estimated_time"`
	Priority       string    `json:"priority"`
	CreatedAt      time.Time `json:"created_at"`

	// Denormalized for list/detail responses.
	SourceName   string `json:"source_name,omitempty"`
	TargetName   string `json:"target_name,omitempty"`
	SourceStatus string `json:"source_status,omitempty"`
	TargetStatus string `json:"target_status,omitempty"`
}

// ExecuteParams drives a scenario run. The incident, both system status
// flips and the audit entry are written in a single transaction.
type ExecuteParams struct {
	ScenarioID int64
	Notes      string
	ActorID    int64
	IPAddress  string
}

type ExecutionResult struct {
	IncidentID    int64  `json:"incident_id"`
	ScenarioName  string `json:"scenario_name"`
	EstimatedTime int    `json:"estimated_time"`
}

type ScenariosStore interface {
	Create(ctx context.Context, sc *Scenario) (int64, error)
	Get(ctx context.Context, id int64) (*Scenario, error)
	List(ctx context.Context) ([]Scenario, error)
	Execute(ctx context.Context, p ExecuteParams) (*ExecutionResult, error)
}

type scenariosStore struct {
	db *DB
}

func NewScenariosStore(db *DB) ScenariosStore {
	return &scenariosStore{db: db}
}

func (s *scenariosStore) Create(ctx context.Context, sc *Scenario) (int64, error) {
	stepsJSON, err := json.Marshal(sc.Steps)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	id, err := s.db.insert(ctx, `
		INSERT INTO scenarios(name, description, source_system_id, target_system_id, steps, estimated_time, priority, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(sc.Name), sc.Description, nullableID(sc.SourceSystemID), nullableID(sc.TargetSystemID),
		string(stepsJSON), sc.EstimatedTime, sc.Priority, now)
	if err != nil {
		return 0, err
	}
	sc.ID = id
	sc.CreatedAt = now
	return id, nil
}

const scenarioSelect = `
	SELECT sc.id, sc.name, sc.description, sc.source_system_id, sc.target_system_id,
	       sc.steps, sc.estimated_time, sc.priority, sc.created_at,
	       COALESCE(src.name, ''), COALESCE(tgt.name, ''),
	       COALESCE(src.status, ''), COALESCE(tgt.status, '')
	FROM scenarios sc
	LEFT JOIN systems src ON src.id = sc.source_system_id
	LEFT JOIN systems tgt ON tgt.id = sc.target_system_id`

func (s *scenariosStore) Get(ctx context.Context, id int64) (*Scenario, error) {
	rows, err := s.db.query(ctx, scenarioSelect+` WHERE sc.id=?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	sc, err := scanScenario(rows)
	if err != nil {
		return nil, err
	}
	return sc, rows.Err()
}

// List orders by priority weight (critical first), then id for a stable
// order inside each band.
func (s *scenariosStore) List(ctx context.Context) ([]Scenario, error) {
	rows, err := s.db.query(ctx, scenarioSelect+`
		ORDER BY CASE sc.priority
			WHEN 'critical' THEN 4
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			ELSE 1
		END DESC, sc.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *sc)
	}
	return res, rows.Err()
}

func (s *scenariosStore) Execute(ctx context.Context, p ExecuteParams) (*ExecutionResult, error) {
	tx, err := s.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.queryRow(ctx, `
		SELECT id, name, source_system_id, target_system_id, estimated_time, priority
		FROM scenarios WHERE id=?`, p.ScenarioID)
	var (
		scID, estimated   int64
		name, priority    string
		sourceID, tgtID   sql.NullInt64
	)
	if err := row.Scan(&scID, &name, &sourceID, &tgtID, &estimated, &priority); err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	now := time.Now().UTC()
	severity := SeverityHigh
	if priority == PriorityCritical {
		severity = SeverityCritical
	}
	description := strings.TrimSpace(p.Notes)
	if description == "" {
		description = fmt.Sprintf("Scénario %s exécuté", name)
	}
	incidentID, err := tx.insert(ctx, `
		INSERT INTO incidents(title, description, system_id, severity, status, reported_by, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		"Exécution: "+name, description, nullableID(sqlNullToPtr(sourceID)), severity, IncidentInProgress, p.ActorID, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if sourceID.Valid {
		if _, err := tx.exec(ctx, `UPDATE systems SET status=?, last_check=? WHERE id=?`, SystemBackup, now, sourceID.Int64); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if tgtID.Valid {
		if _, err := tx.exec(ctx, `UPDATE systems SET status=?, last_check=? WHERE id=?`, SystemActive, now, tgtID.Int64); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	details := map[string]any{"scenario": name, "incident_id": incidentID, "notes": p.Notes}
	if err := appendLogTx(ctx, tx, ActionExecuteScenario, "scenario", scID, &p.ActorID, details, p.IPAddress, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ExecutionResult{IncidentID: incidentID, ScenarioName: name, EstimatedTime: int(estimated)}, nil
}

func scanScenario(rows *sql.Rows) (*Scenario, error) {
	var (
		sc         Scenario
		src, tgt   sql.NullInt64
		stepsJSON  string
	)
	if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &src, &tgt, &stepsJSON, &sc.EstimatedTime,
		&sc.Priority, &sc.CreatedAt, &sc.SourceName, &sc.TargetName, &sc.SourceStatus, &sc.TargetStatus); err != nil {
		return nil, err
	}
	sc.SourceSystemID = sqlNullToPtr(src)
	sc.TargetSystemID = sqlNullToPtr(tgt)
	if stepsJSON != "" {
		if err := json.Unmarshal([]byte(stepsJSON), &sc.Steps); err != nil {
			return nil, err
		}
	}
	if sc.Steps == nil {
		sc.Steps = []string{}
	}
	return &sc, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func sqlNullToPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
