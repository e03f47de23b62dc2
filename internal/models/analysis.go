package models

import (
	"encoding/json"
	"time"
)

type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// JobContext is the optional job a resume is analyzed against.
type JobContext struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	CompanyName    string `json:"companyName"`
}

func (j JobContext) IsZero() bool {
	return j.JobTitle == "" && j.JobDescription == "" && j.CompanyName == ""
}

type AnalysisRecord struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	FileName       string          `json:"fileName"`
	FileType       string          `json:"fileType"`
	FileSize       int64           `json:"fileSize"`
	FilePath       *string         `json:"filePath,omitempty"`
	JobTitle       string          `json:"jobTitle"`
	JobDescription string          `json:"jobDescription"`
	CompanyName    string          `json:"companyName"`
	ATSScore       int             `json:"atsScore"`
	AnalysisData   json.RawMessage `json:"analysisData,omitempty" swaggertype:"object"`
	Status         AnalysisStatus  `json:"status"`
	UploadDate     time.Time       `json:"uploadDate"`
	AnalyzedAt     *time.Time      `json:"analyzedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type DashboardStats struct {
	TotalAnalyses  int              `json:"totalAnalyses"`
	AverageScore   int              `json:"averageScore"`
	RecentAnalyses []AnalysisRecord `json:"recentAnalyses"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination derives TotalPages as ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
