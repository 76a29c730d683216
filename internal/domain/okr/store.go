package okr

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetObjective(ctx context.Context, orgID, objectiveID string) (Objective, error) {
	var o Objective
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, title, description, owner_type, COALESCE(owner_team_id::text, ''),
           COALESCE(owner_user_id::text, ''), COALESCE(parent_id::text, ''), status, quarter,
           created_at, updated_at
    FROM objectives
    WHERE org_id = $1 AND id = $2
  `, orgID, objectiveID).Scan(&o.ID, &o.OrgID, &o.Title, &o.Description, &o.OwnerType,
		&o.OwnerTeamID, &o.OwnerUserID, &o.ParentID, &o.Status, &o.Quarter, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *Store) ListObjectives(ctx context.Context, orgID, ownerType, ownerID, quarter string) ([]Objective, error) {
	query := `
    SELECT id, org_id, title, description, owner_type, COALESCE(owner_team_id::text, ''),
           COALESCE(owner_user_id::text, ''), COALESCE(parent_id::text, ''), status, quarter,
           created_at, updated_at
    FROM objectives
    WHERE org_id = $1
  `
	args := []any{orgID}
	if ownerType != "" {
		args = append(args, ownerType)
		query += " AND owner_type = $2"
	}
	if ownerID != "" {
		args = append(args, ownerID)
		pos := len(args)
		query += " AND (owner_team_id::text = $" + itoa(pos) + " OR owner_user_id::text = $" + itoa(pos) + ")"
	}
	if quarter != "" {
		args = append(args, quarter)
		query += " AND quarter = $" + itoa(len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Objective
	for rows.Next() {
		var o Objective
		if err := rows.Scan(&o.ID, &o.OrgID, &o.Title, &o.Description, &o.OwnerType,
			&o.OwnerTeamID, &o.OwnerUserID, &o.ParentID, &o.Status, &o.Quarter, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CreateObjective(ctx context.Context, o Objective) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO objectives (org_id, title, description, owner_type, owner_team_id, owner_user_id, parent_id, status, quarter)
    VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, NULLIF($7, '')::uuid, $8, $9)
    RETURNING id
  `, o.OrgID, o.Title, o.Description, o.OwnerType, o.OwnerTeamID, o.OwnerUserID, o.ParentID, o.Status, o.Quarter).Scan(&id)
	return id, err
}

func (s *Store) UpdateObjectiveStatus(ctx context.Context, orgID, objectiveID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE objectives SET status = $3, updated_at = now() WHERE org_id = $1 AND id = $2
  `, orgID, objectiveID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteObjective(ctx context.Context, orgID, objectiveID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM objectives WHERE org_id = $1 AND id = $2", orgID, objectiveID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) GetKeyResult(ctx context.Context, orgID, keyResultID string) (KeyResult, error) {
	var kr KeyResult
	err := s.DB.QueryRow(ctx, `
    SELECT kr.id, kr.objective_id, kr.title, kr.type, kr.start_value, kr.target_value,
           kr.current_value, COALESCE(kr.milestone_status, ''), kr.progress, kr.confidence
    FROM key_results kr
    JOIN objectives o ON o.id = kr.objective_id
    WHERE o.org_id = $1 AND kr.id = $2
  `, orgID, keyResultID).Scan(&kr.ID, &kr.ObjectiveID, &kr.Title, &kr.Type, &kr.StartValue,
		&kr.TargetValue, &kr.CurrentValue, &kr.MilestoneStatus, &kr.Progress, &kr.Confidence)
	return kr, err
}

func (s *Store) ListKeyResults(ctx context.Context, orgID, objectiveID string) ([]KeyResult, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT kr.id, kr.objective_id, kr.title, kr.type, kr.start_value, kr.target_value,
           kr.current_value, COALESCE(kr.milestone_status, ''), kr.progress, kr.confidence
    FROM key_results kr
    JOIN objectives o ON o.id = kr.objective_id
    WHERE o.org_id = $1 AND kr.objective_id = $2
    ORDER BY kr.created_at ASC
  `, orgID, objectiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KeyResult
	for rows.Next() {
		var kr KeyResult
		if err := rows.Scan(&kr.ID, &kr.ObjectiveID, &kr.Title, &kr.Type, &kr.StartValue,
			&kr.TargetValue, &kr.CurrentValue, &kr.MilestoneStatus, &kr.Progress, &kr.Confidence); err != nil {
			return nil, err
		}
		out = append(out, kr)
	}
	return out, rows.Err()
}

func (s *Store) CreateKeyResult(ctx context.Context, orgID string, kr KeyResult) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO key_results (objective_id, title, type, start_value, target_value, current_value, milestone_status, progress, confidence)
    SELECT o.id, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10
    FROM objectives o
    WHERE o.org_id = $1 AND o.id = $2
    RETURNING id
  `, orgID, kr.ObjectiveID, kr.Title, kr.Type, kr.StartValue, kr.TargetValue, kr.CurrentValue,
		kr.MilestoneStatus, kr.Progress, kr.Confidence).Scan(&id)
	return id, err
}

func (s *Store) UpdateKeyResult(ctx context.Context, orgID string, kr KeyResult) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE key_results kr
    SET title = $3, current_value = $4, milestone_status = NULLIF($5, ''), progress = $6,
        confidence = $7, updated_at = now()
    FROM objectives o
    WHERE o.id = kr.objective_id AND o.org_id = $1 AND kr.id = $2
  `, orgID, kr.ID, kr.Title, kr.CurrentValue, kr.MilestoneStatus, kr.Progress, kr.Confidence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateCheckIn appends the check-in and refreshes the parent key result's
// cached progress in one transaction, so the log and the cache cannot
// diverge on partial failure.
func (s *Store) CreateCheckIn(ctx context.Context, orgID string, checkIn CheckIn) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO okr_checkins (key_result_id, current_value, progress, confidence, comment, created_by)
    SELECT kr.id, $3, $4, $5, $6, $7
    FROM key_results kr
    JOIN objectives o ON o.id = kr.objective_id
    WHERE o.org_id = $1 AND kr.id = $2
    RETURNING id
  `, orgID, checkIn.KeyResultID, checkIn.CurrentValue, checkIn.Progress, checkIn.Confidence,
		checkIn.Comment, checkIn.CreatedBy).Scan(&id)
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE key_results SET current_value = $2, progress = $3, confidence = $4, updated_at = now()
    WHERE id = $1
  `, checkIn.KeyResultID, checkIn.CurrentValue, checkIn.Progress, checkIn.Confidence); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListCheckIns(ctx context.Context, orgID, keyResultID string) ([]CheckIn, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT ci.id, ci.key_result_id, ci.current_value, ci.progress, ci.confidence, ci.comment,
           ci.created_by, ci.created_at
    FROM okr_checkins ci
    JOIN key_results kr ON kr.id = ci.key_result_id
    JOIN objectives o ON o.id = kr.objective_id
    WHERE o.org_id = $1 AND ci.key_result_id = $2
    ORDER BY ci.created_at DESC
  `, orgID, keyResultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckIn
	for rows.Next() {
		var ci CheckIn
		if err := rows.Scan(&ci.ID, &ci.KeyResultID, &ci.CurrentValue, &ci.Progress, &ci.Confidence,
			&ci.Comment, &ci.CreatedBy, &ci.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
