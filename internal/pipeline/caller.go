package pipeline

import "ats-analyzer/internal/models"

// Caller is resolved once at admission: either Anonymous or Identified.
type Caller interface {
	isCaller()
}

type Anonymous struct{}

// Identified carries the loaded user, with the plan and credits as they
// were at admission.
type Identified struct {
	User *models.User
}

func (Anonymous) isCaller()  {}
func (Identified) isCaller() {}
