package survey

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, orgID, surveyID string) (Survey, error) {
	var sv Survey
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, title, status, anonymous, created_by, created_at, opened_at, closed_at
    FROM surveys
    WHERE org_id = $1 AND id = $2
  `, orgID, surveyID).Scan(&sv.ID, &sv.OrgID, &sv.Title, &sv.Status, &sv.Anonymous,
		&sv.CreatedBy, &sv.CreatedAt, &sv.OpenedAt, &sv.ClosedAt)
	return sv, err
}

func (s *Store) List(ctx context.Context, orgID string) ([]Survey, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, org_id, title, status, anonymous, created_by, created_at, opened_at, closed_at
    FROM surveys
    WHERE org_id = $1
    ORDER BY created_at DESC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Survey
	for rows.Next() {
		var sv Survey
		if err := rows.Scan(&sv.ID, &sv.OrgID, &sv.Title, &sv.Status, &sv.Anonymous,
			&sv.CreatedBy, &sv.CreatedAt, &sv.OpenedAt, &sv.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// Create inserts the survey and its questions in one transaction.
func (s *Store) Create(ctx context.Context, sv Survey, questions []Question) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO surveys (org_id, title, status, anonymous, created_by)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, sv.OrgID, sv.Title, sv.Status, sv.Anonymous, sv.CreatedBy).Scan(&id)
	if err != nil {
		return "", err
	}

	for i, q := range questions {
		if _, err := tx.Exec(ctx, `
      INSERT INTO survey_questions (survey_id, ord, text, type)
      VALUES ($1, $2, $3, $4)
    `, id, i+1, q.Text, q.Type); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetStatus(ctx context.Context, orgID, surveyID, status string, at time.Time) error {
	column := "closed_at"
	if status == StatusOpen {
		column = "opened_at"
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE surveys SET status = $3, `+column+` = $4 WHERE org_id = $1 AND id = $2
  `, orgID, surveyID, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, surveyID string) ([]Question, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, survey_id, ord, text, type
    FROM survey_questions
    WHERE survey_id = $1
    ORDER BY ord ASC
  `, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Order, &q.Text, &q.Type); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) HasResponded(ctx context.Context, surveyID, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM survey_participants WHERE survey_id = $1 AND user_id = $2)
  `, surveyID, userID).Scan(&exists)
	return exists, err
}

// SubmitResponses writes the answer rows and the participation marker in one
// transaction. For anonymous surveys the answers carry no user id; the
// participation marker always does, which is what enforces one response set
// per user without linking users to answers.
func (s *Store) SubmitResponses(ctx context.Context, surveyID, userID string, anonymous bool, answers []Answer) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO survey_participants (survey_id, user_id) VALUES ($1, $2)
  `, surveyID, userID); err != nil {
		return err
	}

	responseUser := userID
	if anonymous {
		responseUser = ""
	}
	for _, a := range answers {
		if _, err := tx.Exec(ctx, `
      INSERT INTO survey_responses (survey_id, question_id, user_id, answer_text, answer_scale)
      VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5)
    `, surveyID, a.QuestionID, responseUser, a.AnswerText, a.AnswerScale); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]Response, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, survey_id, question_id, COALESCE(user_id::text, ''), answer_text, answer_scale, created_at
    FROM survey_responses
    WHERE survey_id = $1
    ORDER BY created_at ASC
  `, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.QuestionID, &r.UserID, &r.AnswerText,
			&r.AnswerScale, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
