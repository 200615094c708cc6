package apikeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, key *APIKey) (*APIKey, error) {
	query :=
		`INSERT INTO api_keys (id, name, ciphertext, nonce, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		key.ID, key.Name, key.Ciphertext, key.Nonce, key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return key, nil
}

const selectAPIKey = `SELECT id, name, ciphertext, nonce, created_at, last_used FROM api_keys`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*APIKey, error) {
	k := &APIKey{}
	err := r.db.QueryRowContext(ctx, selectAPIKey+` WHERE id = $1`, id).Scan(
		&k.ID, &k.Name, &k.Ciphertext, &k.Nonce, &k.CreatedAt, &k.LastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return k, nil
}

func (r *PostgresRepository) Update(ctx context.Context, key *APIKey) error {
	query :=
		`UPDATE api_keys
		 SET name = $2, ciphertext = $3, nonce = $4, last_used = $5
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		key.ID, key.Name, key.Ciphertext, key.Nonce, key.LastUsed)
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

func (r *PostgresRepository) List(ctx context.Context) ([]*APIKey, error) {
	rows, err := r.db.QueryContext(ctx, selectAPIKey+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var list []*APIKey
	for rows.Next() {
		k := &APIKey{}
		if err := rows.Scan(&k.ID, &k.Name, &k.Ciphertext, &k.Nonce, &k.CreatedAt, &k.LastUsed); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		list = append(list, k)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
