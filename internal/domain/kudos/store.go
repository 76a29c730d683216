package kudos

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, k Kudos) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kudos (org_id, from_user_id, to_user_id, category, message, source)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, k.OrgID, k.FromUserID, k.ToUserID, k.Category, k.Message, k.Source).Scan(&id)
	return id, err
}

func (s *Store) List(ctx context.Context, orgID string, f Filter) ([]Kudos, error) {
	query := `
    SELECT k.id, k.org_id, k.from_user_id, k.to_user_id, uf.name, ut.name,
           k.category, k.message, k.source, k.created_at
    FROM kudos k
    JOIN users uf ON uf.id = k.from_user_id
    JOIN users ut ON ut.id = k.to_user_id
    WHERE k.org_id = $1
  `
	args := []any{orgID}
	if f.ToUserID != "" {
		args = append(args, f.ToUserID)
		query += " AND k.to_user_id = $" + strconv.Itoa(len(args))
	}
	if f.FromUserID != "" {
		args = append(args, f.FromUserID)
		query += " AND k.from_user_id = $" + strconv.Itoa(len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += " AND k.category = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY k.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Kudos
	for rows.Next() {
		var k Kudos
		if err := rows.Scan(&k.ID, &k.OrgID, &k.FromUserID, &k.ToUserID, &k.FromName, &k.ToName,
			&k.Category, &k.Message, &k.Source, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// CountByCategory feeds the dashboard; only non-zero categories come back.
func (s *Store) CountByCategory(ctx context.Context, orgID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT category, COUNT(*) FROM kudos WHERE org_id = $1 GROUP BY category
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		out[category] = count
	}
	return out, rows.Err()
}
