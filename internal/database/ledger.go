package database

import (
	"ats-analyzer/internal/models"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// DebitCredit consumes one credit from a free-plan user and records the
// usage in a single conditional UPDATE. Non-free plans only have their usage
// recorded. Two racing debits can never push credits below zero: the WHERE
// clause is evaluated against the row version the UPDATE locks.
func (q *Queries) DebitCredit(ctx context.Context, userID string, at time.Time) (models.Credits, error) {
	query := `
		UPDATE users
		SET
			credits = CASE WHEN plan = 'free' THEN credits - 1 ELSE credits END,
			total_analyses = total_analyses + 1,
			last_analysis_date = $2
		WHERE id = $1 AND (plan <> 'free' OR credits > 0)
		RETURNING plan, credits
	`

	var plan models.Plan
	var credits int
	err := q.db.QueryRow(ctx, query, userID, at).Scan(&plan, &credits)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return models.Credits{}, err
		}

		var exists bool
		if err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return models.Credits{}, err
		}
		if !exists {
			return models.Credits{}, ErrUserNotFound
		}
		return models.Remaining(0), ErrInsufficientCredits
	}

	if plan != models.PlanFree {
		return models.Unlimited(), nil
	}
	return models.Remaining(credits), nil
}
