package pipeline

import (
	"ats-analyzer/internal/analyzer"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
)

// Score accepts a JSON number or a numeric string.
type Score int

func (s *Score) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return errors.New("score is null")
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("score %s is not numeric", string(b))
	}
	*s = Score(math.Round(f))
	return nil
}

type Check struct {
	Subheading string `json:"subheading" validate:"required"`
	Passed     *bool  `json:"passed" validate:"required"`
	Summary    string `json:"summary"`
}

type GeneralReport struct {
	OverallScore  *Score  `json:"overallScore" validate:"required,min=0,max=100"`
	ATSEssentials []Check `json:"atsEssentials" validate:"required,min=1,dive"`
	Content       []Check `json:"content" validate:"required,min=1,dive"`
	Sections      []Check `json:"sections" validate:"required,min=1,dive"`
	UrgentFixes   []Check `json:"urgentFixes" validate:"required,min=1,dive"`
}

type Finding struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type Change struct {
	Title  string `json:"title" validate:"required"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type JobFit struct {
	Role     string `json:"role" validate:"required"`
	FitScore *Score `json:"fit_score" validate:"omitempty,min=0,max=100"`
	Reason   string `json:"reason"`
}

type JobReport struct {
	ATSScore     *Score    `json:"ats_score" validate:"required,min=0,max=100"`
	Strengths    []Finding `json:"strengths" validate:"required,min=1,dive"`
	Weaknesses   []Finding `json:"weaknesses" validate:"required,min=1,dive"`
	Improvements []Finding `json:"improvements" validate:"required,min=1,dive"`
	Suggestions  []Finding `json:"suggestions" validate:"required,min=1,dive"`
	Changes      []Change  `json:"changes" validate:"required,dive"`
	JobFit       []JobFit  `json:"job_fit" validate:"required,dive"`
}

var reportValidator = validator.New()

// ValidateReport checks the adapter payload against the report schema of
// the variant and returns the overall score.
func ValidateReport(variant analyzer.Variant, payload json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	switch variant {
	case analyzer.VariantJobMatch:
		var rep JobReport
		if err := dec.Decode(&rep); err != nil {
			return 0, fmt.Errorf("decode job report: %w", err)
		}
		if err := reportValidator.Struct(rep); err != nil {
			return 0, fmt.Errorf("job report: %w", err)
		}
		return int(*rep.ATSScore), nil
	default:
		var rep GeneralReport
		if err := dec.Decode(&rep); err != nil {
			return 0, fmt.Errorf("decode report: %w", err)
		}
		if err := reportValidator.Struct(rep); err != nil {
			return 0, fmt.Errorf("report: %w", err)
		}
		return int(*rep.OverallScore), nil
	}
}
