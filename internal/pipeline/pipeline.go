package pipeline

import (
	"ats-analyzer/internal/analyzer"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/models"
	"ats-analyzer/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type State string

const (
	StateReceived      State = "received"
	StateAdmitted      State = "admitted"
	StateExtracted     State = "extracted"
	StateAnalyzed      State = "analyzed"
	StatePersisted     State = "persisted"
	StatePersistFailed State = "persist_failed"
	StateDone          State = "done"
	StateRejected      State = "rejected"
	StateFailed        State = "failed"
)

type Extractor interface {
	Extract(ctx context.Context, path, mimeType string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (json.RawMessage, error)
}

type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	PersistAnalysis(ctx context.Context, arg database.CreateAnalysisParams) (*models.AnalysisRecord, models.Credits, error)
}

type Files interface {
	Promote(srcPath, ownerID, originalName string) (string, error)
	Delete(relPath string) error
}

// Notifier is told about records that were saved. It must not block.
type Notifier interface {
	AnalysisSaved(ctx context.Context, rec *models.AnalysisRecord)
}

type Request struct {
	Variant analyzer.Variant
	// UserID is empty for anonymous callers.
	UserID string
	File   *storage.TempFile
	Job    models.JobContext
}

type Result struct {
	Analysis   json.RawMessage
	Score      int
	AnalysisID string
	Saved      bool
	// Credits is nil for anonymous callers.
	Credits *models.Credits
	// Degraded holds the persistence failure when Saved is false for an
	// identified caller.
	Degraded *Error
}

type Service struct {
	log       *slog.Logger
	extractor Extractor
	analyzer  Analyzer
	store     Store
	files     Files
	notifier  Notifier
	now       func() time.Time
}

func New(log *slog.Logger, extractor Extractor, an Analyzer, store Store, files Files, notifier Notifier) *Service {
	return &Service{
		log:       log.With(slog.String("component", "pipeline")),
		extractor: extractor,
		analyzer:  an,
		store:     store,
		files:     files,
		notifier:  notifier,
		now:       time.Now,
	}
}

type run struct {
	log      *slog.Logger
	state    State
	received time.Time
}

func (r *run) to(s State) {
	r.log.Debug("pipeline state", slog.String("from", string(r.state)), slog.String("to", string(s)))
	r.state = s
}

// Run takes ownership of req.File and releases it before returning, on
// every path.
func (s *Service) Run(ctx context.Context, req Request) (res *Result, err error) {
	const op = "pipeline.Run"

	r := &run{
		log:      s.log.With(slog.String("variant", req.Variant.String()), slog.Bool("identified", req.UserID != "")),
		state:    StateReceived,
		received: s.now(),
	}
	if req.File != nil {
		defer func() {
			if relErr := req.File.Release(); relErr != nil {
				r.log.Error("failed to remove temp file", slog.String("path", req.File.Path), sl.Err(relErr))
			}
		}()
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("pipeline panic", slog.Any("panic", rec))
			res, err = nil, newError(KindInternal, op, errors.New("unexpected fault"))
			r.to(StateFailed)
		}
		runsTotal.WithLabelValues(req.Variant.String(), string(r.state)).Inc()
	}()

	caller, err := s.admit(ctx, req)
	if err != nil {
		r.to(StateRejected)
		return nil, err
	}
	r.to(StateAdmitted)

	start := time.Now()
	text, err := s.extractor.Extract(ctx, req.File.Path, req.File.MIMEType)
	stageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	if err != nil {
		r.to(StateFailed)
		r.log.Warn("text extraction failed", sl.Err(err))
		return nil, newError(KindExtraction, op, err)
	}
	r.to(StateExtracted)

	start = time.Now()
	payload, err := s.analyzer.Analyze(ctx, analyzer.Request{Variant: req.Variant, Text: text, Job: req.Job})
	stageDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	if err != nil {
		r.to(StateFailed)
		r.log.Warn("analysis failed", sl.Err(err))
		return nil, newError(KindAnalysis, op, err)
	}

	score, err := ValidateReport(req.Variant, payload)
	if err != nil {
		r.to(StateFailed)
		r.log.Warn("analysis payload rejected", sl.Err(err))
		return nil, newError(KindAnalysis, op, err)
	}
	r.to(StateAnalyzed)

	res = &Result{Analysis: payload, Score: score}

	switch c := caller.(type) {
	case Identified:
		start = time.Now()
		s.persist(ctx, r, c, req, res)
		stageDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	case Anonymous:
	}

	r.to(StateDone)
	return res, nil
}

func (s *Service) admit(ctx context.Context, req Request) (Caller, error) {
	const op = "pipeline.admit"

	if req.File == nil {
		return nil, newError(KindValidation, op, errors.New("resume file is required"))
	}
	if req.Variant == analyzer.VariantJobMatch {
		if strings.TrimSpace(req.Job.JobTitle) == "" || strings.TrimSpace(req.Job.JobDescription) == "" {
			return nil, newError(KindValidation, op, errors.New("job title and job description are required"))
		}
	}

	if req.UserID == "" {
		return Anonymous{}, nil
	}

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, newError(KindAuth, op, err)
		}
		return nil, newError(KindInternal, op, err)
	}
	if !user.CanAnalyze() {
		return nil, newError(KindQuotaExceeded, op, errors.New("no credits left on the free plan"))
	}
	return Identified{User: user}, nil
}

// persist never fails the request. The outcome is reflected in res.Saved,
// res.Credits and res.Degraded.
func (s *Service) persist(ctx context.Context, r *run, c Identified, req Request, res *Result) {
	const op = "pipeline.persist"

	user := c.User
	log := r.log.With(slog.String("owner_id", user.ID))
	fallback := user.Balance()
	res.Credits = &fallback

	degrade := func(stage string, err error) {
		r.to(StatePersistFailed)
		res.Saved = false
		res.Degraded = newError(KindPersistence, op, err)
		log.Error("analysis not saved", slog.String("stage", stage), sl.Err(err))
	}

	relPath, err := s.files.Promote(req.File.Path, user.ID, req.File.OriginalName)
	if err != nil {
		degrade("promote", err)
		return
	}

	analyzedAt := s.now()
	rec, balance, err := s.store.PersistAnalysis(ctx, database.CreateAnalysisParams{
		OwnerID:      user.ID,
		FileName:     req.File.OriginalName,
		FileType:     req.File.MIMEType,
		FileSize:     req.File.Size,
		FilePath:     &relPath,
		Job:          req.Job,
		ATSScore:     res.Score,
		AnalysisData: res.Analysis,
		Status:       models.StatusCompleted,
		UploadDate:   r.received,
		AnalyzedAt:   &analyzedAt,
	})
	if err != nil {
		if rmErr := s.files.Delete(relPath); rmErr != nil {
			log.Error("failed to remove promoted file", slog.String("path", relPath), sl.Err(rmErr))
		}
		if errors.Is(err, database.ErrInsufficientCredits) {
			zero := models.Remaining(0)
			res.Credits = &zero
		}
		degrade("store", err)
		return
	}

	r.to(StatePersisted)
	res.Saved = true
	res.AnalysisID = rec.ID
	res.Credits = &balance

	if s.notifier != nil {
		s.notifier.AnalysisSaved(ctx, rec)
	}
}
