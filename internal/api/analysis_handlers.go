package api

import (
	"ats-analyzer/internal/analyzer"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/models"
	"ats-analyzer/internal/pipeline"
	"ats-analyzer/internal/storage"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	multipartMemory   = 1 << 20
	multipartOverhead = 1 << 20

	defaultPageLimit = 10
	maxPageLimit     = 100

	// (page-1)*limit stays within int for any page up to maxPage.
	maxPage = math.MaxInt / maxPageLimit
)

type AnalyzeResponse struct {
	Success    bool            `json:"success" example:"true"`
	Analysis   json.RawMessage `json:"analysis" swaggertype:"object"`
	AnalysisID string          `json:"analysisId" example:"0b7e6a3c-3f2d-4a57-9d43-2f0f7c1f9a11"`
	Saved      bool            `json:"saved" example:"true"`
	Credits    *models.Credits `json:"credits" swaggertype:"integer"`
}

type HistoryResponse struct {
	Success    bool                    `json:"success" example:"true"`
	Analyses   []models.AnalysisRecord `json:"analyses"`
	Pagination models.Pagination       `json:"pagination"`
}

type DashboardStatsResponse struct {
	Success bool                   `json:"success" example:"true"`
	Stats   *models.DashboardStats `json:"stats"`
}

type AnalysisResponse struct {
	Success  bool                   `json:"success" example:"true"`
	Analysis *models.AnalysisRecord `json:"analysis"`
}

func (s *Server) requestLogger(r *http.Request, op string) *slog.Logger {
	return s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// @Summary      Analyze a resume
// @Description  Uploads a resume (PDF or DOCX) and returns an ATS report. Authenticated callers get the result saved and one credit debited on the free plan.
// @Tags         analyze
// @Accept       multipart/form-data
// @Produce      json
// @Param        resume          formData  file    true   "Resume document"
// @Param        jobTitle        formData  string  false  "Job title"
// @Param        jobDescription  formData  string  false  "Job description"
// @Param        companyName     formData  string  false  "Company name"
// @Security     BearerAuth
// @Success      200  {object}  AnalyzeResponse
// @Failure      400  {object}  ErrorResponse "Missing file"
// @Failure      401  {object}  ErrorResponse "Invalid token"
// @Failure      403  {object}  ErrorResponse "No credits left"
// @Failure      413  {object}  ErrorResponse "File too large"
// @Failure      415  {object}  ErrorResponse "File type not allowed"
// @Failure      422  {object}  ErrorResponse "Unreadable document"
// @Failure      502  {object}  ErrorResponse "Analysis failed"
// @Failure      504  {object}  ErrorResponse "Analysis timed out"
// @Router       /analyze [post]
func (s *Server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyze(w, r, analyzer.VariantGeneral, "api.AnalyzeHandler")
}

// @Summary      Analyze a resume against a job
// @Description  Same as /analyze but scores the resume against the given job title and description.
// @Tags         analyze
// @Accept       multipart/form-data
// @Produce      json
// @Param        resume          formData  file    true   "Resume document"
// @Param        jobTitle        formData  string  true   "Job title"
// @Param        jobDescription  formData  string  true   "Job description"
// @Param        companyName     formData  string  false  "Company name"
// @Security     BearerAuth
// @Success      200  {object}  AnalyzeResponse
// @Failure      400  {object}  ErrorResponse "Missing file or job context"
// @Failure      403  {object}  ErrorResponse "No credits left"
// @Failure      422  {object}  ErrorResponse "Unreadable document"
// @Failure      502  {object}  ErrorResponse "Analysis failed"
// @Router       /analyze/job-match [post]
func (s *Server) JobMatchHandler(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyze(w, r, analyzer.VariantJobMatch, "api.JobMatchHandler")
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, variant analyzer.Variant, op string) {
	log := s.requestLogger(r, op)

	r.Body = http.MaxBytesReader(w, r.Body, s.stager.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		s.respondError(w, r, http.StatusBadRequest, "Error parsing multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := pipeline.Request{
		Variant: variant,
		Job: models.JobContext{
			JobTitle:       strings.TrimSpace(r.FormValue("jobTitle")),
			JobDescription: strings.TrimSpace(r.FormValue("jobDescription")),
			CompanyName:    strings.TrimSpace(r.FormValue("companyName")),
		},
	}
	if claims := GetUserFromContext(r.Context()); claims != nil {
		req.UserID = claims.UserID
	}

	file, header, err := formFile(r)
	switch {
	case err == nil:
		defer file.Close()
		tmp, err := s.stager.Stage(file, header.Filename)
		if err != nil {
			s.respondStageError(w, r, log, err)
			return
		}
		req.File = tmp
	case errors.Is(err, http.ErrMissingFile):
	default:
		s.respondError(w, r, http.StatusBadRequest, "Error retrieving the file")
		return
	}

	res, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		s.respondPipelineError(w, r, log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, AnalyzeResponse{
		Success:    true,
		Analysis:   res.Analysis,
		AnalysisID: res.AnalysisID,
		Saved:      res.Saved,
		Credits:    res.Credits,
	})
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return r.FormFile("file")
	}
	return file, header, err
}

func (s *Server) respondStageError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		s.respondError(w, r, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
	case errors.Is(err, storage.ErrUnsupportedType):
		s.respondError(w, r, http.StatusUnsupportedMediaType, "Invalid file type. Only PDF and Word documents are allowed")
	case errors.Is(err, storage.ErrEmptyUpload):
		s.respondError(w, r, http.StatusBadRequest, "Uploaded file is empty")
	default:
		log.Error("failed to stage upload", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to save the uploaded file")
	}
}

func parsePageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// @Summary      List analysis history
// @Description  Returns the caller's saved analyses, newest first. Entries omit the full report.
// @Tags         analyze
// @Produce      json
// @Param        page   query  int  false  "Page number"     default(1)
// @Param        limit  query  int  false  "Items per page"  default(10)
// @Security     BearerAuth
// @Success      200  {object}  HistoryResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /analyze/history [get]
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.HistoryHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())

	page, limit := parsePageParams(r)

	records, total, err := s.store.ListAnalysesByOwner(r.Context(), claims.UserID, limit, (page-1)*limit)
	if err != nil {
		log.Error("failed to list analyses", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	writeJSON(w, r, http.StatusOK, HistoryResponse{
		Success:    true,
		Analyses:   records,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// @Summary      Dashboard statistics
// @Description  Returns the caller's total analyses, average score and up to five recent analyses.
// @Tags         analyze
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DashboardStatsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /analyze/dashboard-stats [get]
func (s *Server) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.DashboardStatsHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())

	cached, generation, ok := s.events.cachedStats(r.Context(), claims.UserID)
	if ok {
		writeJSON(w, r, http.StatusOK, DashboardStatsResponse{Success: true, Stats: cached})
		return
	}

	stats, err := s.store.GetDashboardStats(r.Context(), claims.UserID)
	if err != nil {
		log.Error("failed to load dashboard stats", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}
	s.events.storeStats(r.Context(), claims.UserID, generation, stats)

	writeJSON(w, r, http.StatusOK, DashboardStatsResponse{Success: true, Stats: stats})
}

// @Summary      Get an analysis
// @Description  Returns one saved analysis with its full report.
// @Tags         analyze
// @Produce      json
// @Param        id   path  string  true  "Analysis ID"
// @Security     BearerAuth
// @Success      200  {object}  AnalysisResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /analyze/{id} [get]
func (s *Server) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.GetAnalysisHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())

	rec, err := s.store.GetAnalysisForOwner(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrAnalysisNotFound) {
			s.respondError(w, r, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Error("failed to load analysis", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	writeJSON(w, r, http.StatusOK, AnalysisResponse{Success: true, Analysis: rec})
}

// @Summary      Download the analysed resume
// @Description  Streams the stored resume file of a saved analysis.
// @Tags         analyze
// @Produce      octet-stream
// @Param        id   path  string  true  "Analysis ID"
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /analyze/{id}/file [get]
func (s *Server) DownloadAnalysisFileHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.DownloadAnalysisFileHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())

	rec, err := s.store.GetAnalysisForOwner(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrAnalysisNotFound) {
			s.respondError(w, r, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Error("failed to load analysis", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to load analysis")
		return
	}
	if rec.FilePath == nil {
		s.respondError(w, r, http.StatusNotFound, "File not available for this analysis")
		return
	}

	f, err := s.files.Open(*rec.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, r, http.StatusNotFound, "File not available for this analysis")
			return
		}
		log.Error("failed to open stored file", slog.String("path", *rec.FilePath), sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.FileType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.FileName}))
	if rec.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(rec.FileSize, 10))
	}

	if _, err := io.Copy(w, f); err != nil {
		log.Warn("file stream interrupted", sl.Err(err))
	}
}

// @Summary      Delete an analysis
// @Description  Deletes a saved analysis and its stored file.
// @Tags         analyze
// @Produce      json
// @Param        id   path  string  true  "Analysis ID"
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /analyze/{id} [delete]
func (s *Server) DeleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.DeleteAnalysisHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	filePath, err := s.store.DeleteAnalysisForOwner(r.Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrAnalysisNotFound) {
			s.respondError(w, r, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Error("failed to delete analysis", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}

	if filePath != nil {
		if err := s.files.Delete(*filePath); err != nil {
			log.Error("failed to remove stored file", slog.String("path", *filePath), sl.Err(err))
		}
	}
	s.events.AnalysisDeleted(r.Context(), claims.UserID, id)

	writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Analysis deleted"})
}
