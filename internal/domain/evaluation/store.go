package evaluation

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

// Organization scoping goes through the parent cycle: an evaluation outside
// the actor's organization scans as pgx.ErrNoRows, which the service reports
// as 404 rather than 403.
const evaluationSelect = `
    SELECT e.id, e.cycle_id, e.evaluatee_id, e.evaluator_id, COALESCE(e.reviewer_id::text, ''),
           e.status, e.overall_rating, e.comments, e.manager_comments,
           e.reviewed_at, COALESCE(e.reviewed_by::text, ''), e.shared_at, e.is_visible,
           e.created_at, e.updated_at
    FROM evaluations e
    JOIN evaluation_cycles c ON c.id = e.cycle_id
    WHERE c.org_id = $1`

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var e Evaluation
	err := row.Scan(&e.ID, &e.CycleID, &e.EvaluateeID, &e.EvaluatorID, &e.ReviewerID,
		&e.Status, &e.OverallRating, &e.Comments, &e.ManagerComments,
		&e.ReviewedAt, &e.ReviewedBy, &e.SharedAt, &e.IsVisible,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) GetEvaluation(ctx context.Context, orgID, evaluationID string) (Evaluation, error) {
	return scanEvaluation(s.DB.QueryRow(ctx, evaluationSelect+" AND e.id = $2", orgID, evaluationID))
}

func (s *Store) ListEvaluations(ctx context.Context, orgID, cycleID, participantID string, limit, offset int) ([]Evaluation, error) {
	query := evaluationSelect
	args := []any{orgID}
	if cycleID != "" {
		args = append(args, cycleID)
		query += " AND e.cycle_id = $2"
	}
	if participantID != "" {
		args = append(args, participantID)
		query += " AND (e.evaluatee_id = $" + itoa(len(args)) + " OR e.evaluator_id = $" + itoa(len(args)) + " OR e.reviewer_id = $" + itoa(len(args)) + ")"
	}
	args = append(args, limit, offset)
	query += " ORDER BY e.created_at DESC LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateEvaluation(ctx context.Context, orgID, cycleID, evaluateeID, evaluatorID, reviewerID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (cycle_id, evaluatee_id, evaluator_id, reviewer_id, status, comments)
    SELECT c.id, $3, $4, NULLIF($5, '')::uuid, 'DRAFT', ''
    FROM evaluation_cycles c
    WHERE c.org_id = $1 AND c.id = $2
    RETURNING id
  `, orgID, cycleID, evaluateeID, evaluatorID, reviewerID).Scan(&id)
	return id, err
}

// UpdateDraft updates the evaluation fields and, when ratings are present,
// replaces the full competency rating set. Both happen in one transaction so
// partial rating sets are never observable.
func (s *Store) UpdateDraft(ctx context.Context, orgID, evaluationID string, update DraftUpdate) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE evaluations e
    SET overall_rating = COALESCE($3, e.overall_rating),
        comments = COALESCE($4, e.comments),
        updated_at = now()
    FROM evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID, update.OverallRating, update.Comments)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if update.Ratings != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM competency_ratings WHERE evaluation_id = $1", evaluationID); err != nil {
			return err
		}
		for _, rating := range update.Ratings {
			if _, err := tx.Exec(ctx, `
        INSERT INTO competency_ratings (evaluation_id, competency_id, rating, comment)
        VALUES ($1, $2, $3, $4)
      `, evaluationID, rating.CompetencyID, rating.Rating, rating.Comment); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) MarkSubmitted(ctx context.Context, orgID, evaluationID string) error {
	return s.execScoped(ctx, `
    UPDATE evaluations e
    SET status = 'SUBMITTED', updated_at = now()
    FROM evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID)
}

func (s *Store) MarkReviewed(ctx context.Context, orgID, evaluationID, reviewerID string, overallRating *float64) error {
	return s.execScoped(ctx, `
    UPDATE evaluations e
    SET status = 'REVIEWED', reviewed_at = now(), reviewed_by = $3,
        overall_rating = COALESCE($4, e.overall_rating), updated_at = now()
    FROM evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID, reviewerID, overallRating)
}

func (s *Store) MarkRejected(ctx context.Context, orgID, evaluationID, managerComments string) error {
	return s.execScoped(ctx, `
    UPDATE evaluations e
    SET status = 'DRAFT', reviewed_at = NULL, reviewed_by = NULL,
        manager_comments = $3, updated_at = now()
    FROM evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID, managerComments)
}

func (s *Store) MarkShared(ctx context.Context, orgID, evaluationID string) error {
	return s.execScoped(ctx, `
    UPDATE evaluations e
    SET status = 'SHARED', shared_at = now(), is_visible = TRUE, updated_at = now()
    FROM evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID)
}

func (s *Store) DeleteEvaluation(ctx context.Context, orgID, evaluationID string) error {
	return s.execScoped(ctx, `
    DELETE FROM evaluations e
    USING evaluation_cycles c
    WHERE c.id = e.cycle_id AND c.org_id = $1 AND e.id = $2
  `, orgID, evaluationID)
}

func (s *Store) execScoped(ctx context.Context, query string, args ...any) error {
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) ListRatings(ctx context.Context, orgID, evaluationID string) ([]CompetencyRating, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.evaluation_id, r.competency_id, r.rating, r.comment
    FROM competency_ratings r
    JOIN evaluations e ON e.id = r.evaluation_id
    JOIN evaluation_cycles c ON c.id = e.cycle_id
    WHERE c.org_id = $1 AND r.evaluation_id = $2
    ORDER BY r.competency_id
  `, orgID, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []CompetencyRating
	for rows.Next() {
		var rating CompetencyRating
		if err := rows.Scan(&rating.EvaluationID, &rating.CompetencyID, &rating.Rating, &rating.Comment); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, orgID, cycleID string) (Cycle, error) {
	var cycle Cycle
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, name, start_date, end_date, status, created_at
    FROM evaluation_cycles
    WHERE org_id = $1 AND id = $2
  `, orgID, cycleID).Scan(&cycle.ID, &cycle.OrgID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.Status, &cycle.CreatedAt)
	return cycle, err
}

func (s *Store) ListCycles(ctx context.Context, orgID string) ([]Cycle, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, org_id, name, start_date, end_date, status, created_at
    FROM evaluation_cycles
    WHERE org_id = $1
    ORDER BY start_date DESC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var cycle Cycle
		if err := rows.Scan(&cycle.ID, &cycle.OrgID, &cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.Status, &cycle.CreatedAt); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

func (s *Store) CreateCycle(ctx context.Context, orgID, name string, start, end any, status string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_cycles (org_id, name, start_date, end_date, status)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, orgID, name, start, end, status).Scan(&id)
	return id, err
}

func (s *Store) ListCompetencies(ctx context.Context, orgID string) ([]Competency, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, org_id, name, description FROM competencies WHERE org_id = $1 ORDER BY name ASC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var competencies []Competency
	for rows.Next() {
		var competency Competency
		if err := rows.Scan(&competency.ID, &competency.OrgID, &competency.Name, &competency.Description); err != nil {
			return nil, err
		}
		competencies = append(competencies, competency)
	}
	return competencies, rows.Err()
}

func (s *Store) CreateCompetency(ctx context.Context, orgID, name, description string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO competencies (org_id, name, description) VALUES ($1, $2, $3) RETURNING id
  `, orgID, name, description).Scan(&id)
	return id, err
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
