package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *Session) (*Session, error) {
	query :=
		`INSERT INTO sessions (id, user_id, access_token, refresh_token, generation,
		                       created_at, expires_at, last_activity, ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.AccessToken, session.RefreshToken, session.Generation,
		session.CreatedAt, session.ExpiresAt, session.LastActivity, session.IP, session.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return session, nil
}

const selectSession = `SELECT id, user_id, access_token, refresh_token, generation,
       created_at, expires_at, last_activity, ip, user_agent FROM sessions`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Session, error) {
	s := &Session{}
	err := r.db.QueryRowContext(ctx, selectSession+` WHERE id = $1`, id).Scan(
		&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken, &s.Generation,
		&s.CreatedAt, &s.ExpiresAt, &s.LastActivity, &s.IP, &s.UserAgent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, session *Session) error {
	query :=
		`UPDATE sessions
		 SET access_token = $2, refresh_token = $3, generation = $4, expires_at = $5, last_activity = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		session.ID, session.AccessToken, session.RefreshToken, session.Generation,
		session.ExpiresAt, session.LastActivity)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := r.db.QueryContext(ctx, selectSession+` WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var list []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken, &s.Generation,
			&s.CreatedAt, &s.ExpiresAt, &s.LastActivity, &s.IP, &s.UserAgent); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}
