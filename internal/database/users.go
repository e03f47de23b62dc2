package database

import (
	"ats-analyzer/internal/models"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Plan         models.Plan
	Credits      int
}

const userColumns = `id, name, email, password_hash, plan, credits, total_analyses, last_analysis_date, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Plan,
		&user.Credits,
		&user.TotalAnalyses,
		&user.LastAnalysisDate,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	plan := arg.Plan
	if plan == "" {
		plan = models.PlanFree
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, plan, credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query,
		uuid.NewString(),
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		plan,
		arg.Credits,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(q.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
