package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
)

type UserRepository interface {
	GetByToken(ctx context.Context, token string) (*model.UserInfo, error)
}

type SQLUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &SQLUserRepository{
		db: db,
	}
}

// GetByToken resolves a bearer token to its user through the session table.
// Expired or unknown tokens read as (nil, nil).
func (r *SQLUserRepository) GetByToken(ctx context.Context, token string) (*model.UserInfo, error) {
	var user model.UserInfo

	query := `
		SELECT u.id, u.name, u.email, u.country_code, u.created_at, u.updated_at
		FROM users u
		JOIN user_sessions s ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > NOW()
	`

	err := r.db.GetContext(ctx, &user, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}
