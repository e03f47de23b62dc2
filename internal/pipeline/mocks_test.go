package pipeline

import (
	"ats-analyzer/internal/analyzer"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/models"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeExtractor struct {
	ExtractFunc func(ctx context.Context, path, mimeType string) (string, error)
	calls       int
}

func (f *fakeExtractor) Extract(ctx context.Context, path, mimeType string) (string, error) {
	f.calls++
	if f.ExtractFunc != nil {
		return f.ExtractFunc(ctx, path, mimeType)
	}
	return "Jane Doe\nSenior Go Engineer", nil
}

type fakeAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, req analyzer.Request) (json.RawMessage, error)
	calls       int
	last        analyzer.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analyzer.Request) (json.RawMessage, error) {
	f.calls++
	f.last = req
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, req)
	}
	if req.Variant == analyzer.VariantJobMatch {
		return json.RawMessage(validJobReport), nil
	}
	return json.RawMessage(validGeneralReport), nil
}

// fakeStore keeps users and records in memory and settles credits the way
// the database ledger does.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	records     []models.AnalysisRecord
	persistErr  error
	getUserErr  error
	getCalls    int
	persistCall int
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) PersistAnalysis(ctx context.Context, arg database.CreateAnalysisParams) (*models.AnalysisRecord, models.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistCall++
	if s.persistErr != nil {
		return nil, models.Credits{}, s.persistErr
	}

	u, ok := s.users[arg.OwnerID]
	if !ok {
		return nil, models.Credits{}, database.ErrUserNotFound
	}
	if u.Plan == models.PlanFree && u.Credits <= 0 {
		return nil, models.Remaining(0), database.ErrInsufficientCredits
	}
	if u.Plan == models.PlanFree {
		u.Credits--
	}
	u.TotalAnalyses++
	now := time.Now()
	u.LastAnalysisDate = &now

	rec := models.AnalysisRecord{
		ID:           uuid.NewString(),
		OwnerID:      arg.OwnerID,
		FileName:     arg.FileName,
		FileType:     arg.FileType,
		FileSize:     arg.FileSize,
		FilePath:     arg.FilePath,
		JobTitle:     arg.Job.JobTitle,
		ATSScore:     arg.ATSScore,
		AnalysisData: arg.AnalysisData,
		Status:       arg.Status,
		UploadDate:   arg.UploadDate,
		AnalyzedAt:   arg.AnalyzedAt,
		CreatedAt:    now,
	}
	s.records = append(s.records, rec)
	return &rec, u.Balance(), nil
}

type fakeFiles struct {
	PromoteFunc func(srcPath, ownerID, originalName string) (string, error)
	promoted    []string
	deleted     []string
}

func (f *fakeFiles) Promote(srcPath, ownerID, originalName string) (string, error) {
	if f.PromoteFunc != nil {
		return f.PromoteFunc(srcPath, ownerID, originalName)
	}
	rel := "resumes/" + ownerID + "/1_" + originalName
	f.promoted = append(f.promoted, rel)
	return rel, nil
}

func (f *fakeFiles) Delete(relPath string) error {
	f.deleted = append(f.deleted, relPath)
	return nil
}

type fakeNotifier struct {
	saved []*models.AnalysisRecord
}

func (n *fakeNotifier) AnalysisSaved(ctx context.Context, rec *models.AnalysisRecord) {
	n.saved = append(n.saved, rec)
}

var errBoom = errors.New("boom")

const validGeneralReport = `{
  "overallScore": 78,
  "atsEssentials": [{"subheading": "Design", "passed": true, "summary": "Clean layout."}],
  "content": [{"subheading": "Repetition", "passed": false, "summary": "Led is repeated."}],
  "sections": [{"subheading": "Experience", "passed": true, "summary": "Clear history."}],
  "urgentFixes": [{"subheading": "Employment Gaps", "passed": true, "summary": "None.", "action": "None"}]
}`

const validJobReport = `{
  "ats_score": "64",
  "strengths": [{"title": "Go", "description": "Five years."}],
  "weaknesses": [{"title": "Kubernetes", "description": "Not mentioned."}],
  "improvements": [{"title": "Metrics", "description": "Quantify impact."}],
  "suggestions": [{"title": "Summary", "description": "Add one."}],
  "changes": [{"title": "Headline", "before": "Developer", "after": "Platform Engineer"}],
  "job_fit": [{"role": "Platform Engineer", "fit_score": 70, "reason": "Strong backend."}]
}`
