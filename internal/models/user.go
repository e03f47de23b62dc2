package models

import "time"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type User struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Plan             Plan       `json:"plan" db:"plan"`
	Credits          int        `json:"-" db:"credits"`
	TotalAnalyses    int        `json:"totalAnalyses" db:"total_analyses"`
	LastAnalysisDate *time.Time `json:"lastAnalysisDate,omitempty" db:"last_analysis_date"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// CanAnalyze reports whether the user may start another analysis.
// Only the free plan is metered.
func (u *User) CanAnalyze() bool {
	return u.Plan != PlanFree || u.Credits > 0
}

// Balance returns the caller-visible credit balance for the user's plan.
func (u *User) Balance() Credits {
	if u.Plan != PlanFree {
		return Unlimited()
	}
	return Remaining(u.Credits)
}
