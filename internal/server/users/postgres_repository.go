package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}

	query :=
		`INSERT INTO users (id, username, email, hash, salt, role, created_at, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Hash, user.Salt, string(user.Role), user.CreatedAt, settings)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorDuplicateUsername
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var role string
	var settings []byte

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Hash, &user.Salt,
		&role, &user.CreatedAt, &user.LastLogin, &settings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	user.Role = Role(role)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &user.Settings); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	}
	return user, nil
}

const selectUser = `SELECT id, username, email, hash, salt, role, created_at, last_login, settings FROM users`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE username = $1`, username))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var list []*User
	for rows.Next() {
		user := &User{}
		var role string
		var settings []byte
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Hash, &user.Salt,
			&role, &user.CreatedAt, &user.LastLogin, &settings); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		user.Role = Role(role)
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &user.Settings); err != nil {
				return nil, fmt.Errorf("parse settings: %w", err)
			}
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, user *User) error {
	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	query :=
		`UPDATE users
		 SET username = $2, email = $3, hash = $4, salt = $5, role = $6, last_login = $7, settings = $8
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Hash, user.Salt, string(user.Role), user.LastLogin, settings)
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
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}
