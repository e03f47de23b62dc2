package api

import (
	"ats-analyzer/internal/analyzer"
	"ats-analyzer/internal/extract"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/models"
	"ats-analyzer/internal/pipeline"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Success      bool            `json:"success" example:"false"`
	Message      string          `json:"message" example:"Resume file is required"`
	NeedsUpgrade bool            `json:"needsUpgrade,omitempty"`
	Credits      *models.Credits `json:"credits,omitempty" swaggertype:"integer"`
}

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Analysis deleted"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Success: false, Message: message})
}

// respondPipelineError maps a pipeline failure onto a status code. Internal
// details are logged, never returned.
func (s *Server) respondPipelineError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation:
		var pe *pipeline.Error
		msg := "Invalid request"
		if errors.As(err, &pe) && pe.Err != nil {
			msg = pe.Err.Error()
		}
		s.respondError(w, r, http.StatusBadRequest, msg)
	case pipeline.KindAuth:
		s.respondError(w, r, http.StatusUnauthorized, "User not found or session invalid")
	case pipeline.KindQuotaExceeded:
		zero := models.Remaining(0)
		writeJSON(w, r, http.StatusForbidden, ErrorResponse{
			Success:      false,
			Message:      "No credits left, upgrade your plan to continue",
			NeedsUpgrade: true,
			Credits:      &zero,
		})
	case pipeline.KindNotFound:
		s.respondError(w, r, http.StatusNotFound, "Not found")
	case pipeline.KindExtraction:
		if errors.Is(err, extract.ErrUnreadable) || errors.Is(err, extract.ErrEmpty) || errors.Is(err, extract.ErrUnsupported) {
			s.respondError(w, r, http.StatusUnprocessableEntity, "Could not read text from the uploaded document")
			return
		}
		log.Error("text extraction failed", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to process the uploaded document")
	case pipeline.KindAnalysis:
		if errors.Is(err, analyzer.ErrTimeout) {
			s.respondError(w, r, http.StatusGatewayTimeout, "Resume analysis timed out")
			return
		}
		s.respondError(w, r, http.StatusBadGateway, "Resume analysis failed")
	default:
		log.Error("analysis request failed", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
