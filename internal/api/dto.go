package api

import (
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

type jobResponse struct {
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ConfidenceScore *float64   `json:"confidenceScore,omitempty"`
	JobID           string     `json:"jobId"`
	Status          string     `json:"status"`
	SourceType      string     `json:"sourceType"`
	InitiatorID     string     `json:"initiatorId,omitempty"`
	InitiatorRole   string     `json:"initiatorRole,omitempty"`
	LLMModel        string     `json:"llmModel,omitempty"`
	ErrorLog        string     `json:"errorLog,omitempty"`
}

type attachmentResponse struct {
	ID          string `json:"id"`
	FileType    string `json:"fileType"`
	StoragePath string `json:"storagePath"`
	Checksum    string `json:"checksum,omitempty"`
}

type jobDetailResponse struct {
	jobResponse
	Attachments []attachmentResponse    `json:"attachments"`
	Preview     []model.CandidateRecord `json:"preview"`
}

type parseResponse struct {
	RawResponse map[string]any          `json:"rawResponse,omitempty"`
	JobID       string                  `json:"jobId"`
	Status      string                  `json:"status"`
	Preview     []model.CandidateRecord `json:"preview"`
}

type confirmRequest struct {
	Actions []model.ConfirmationAction `json:"actions"`
}

type logResponse struct {
	CreatedAt    time.Time      `json:"createdAt"`
	RecordID     *string        `json:"recordId"`
	DiffSnapshot map[string]any `json:"diffSnapshot"`
	ID           string         `json:"id"`
	RecordType   string         `json:"recordType"`
	ActorID      string         `json:"actorId,omitempty"`
	ActorRole    string         `json:"actorRole,omitempty"`
	Action       string         `json:"action"`
	Comment      string         `json:"comment,omitempty"`
}

type categoryResponse struct {
	ParentID *string `json:"parentId"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	FullPath string  `json:"fullPath"`
	Type     string  `json:"type"`
	Level    int     `json:"level"`
}

type expenseForecastRequest struct {
	CategoryLabel *string         `json:"categoryLabel"`
	Description   *string         `json:"description"`
	AccountName   *string         `json:"accountName"`
	Month         string          `json:"month"`
	Certainty     model.Certainty `json:"certainty"`
	Amount        decimal.Decimal `json:"amount"`
}

type expenseForecastPatchRequest struct {
	CategoryLabel *string          `json:"categoryLabel"`
	Description   *string          `json:"description"`
	AccountName   *string          `json:"accountName"`
	Amount        *decimal.Decimal `json:"amount"`
	Certainty     *model.Certainty `json:"certainty"`
}

type expenseForecastResponse struct {
	CategoryLabel *string `json:"categoryLabel"`
	CategoryID    *string `json:"categoryId"`
	Description   *string `json:"description"`
	AccountName   *string `json:"accountName"`
	ID            string  `json:"id"`
	CompanyID     string  `json:"companyId"`
	Month         string  `json:"month"`
	Certainty     string  `json:"certainty"`
	Amount        float64 `json:"amount"`
}

func toExpenseForecastResponse(f *model.Forecast) expenseForecastResponse {
	return expenseForecastResponse{
		ID:            f.ID,
		CompanyID:     f.CompanyID,
		Month:         f.CashDate.Format("2006-01"),
		CategoryLabel: f.CategoryLabel,
		CategoryID:    f.CategoryID,
		Description:   f.Description,
		AccountName:   f.AccountName,
		Amount:        f.ExpectedAmount.InexactFloat64(),
		Certainty:     string(f.Certainty),
	}
}

func toJobResponse(job *model.ImportJob) jobResponse {
	return jobResponse{
		JobID:           job.ID,
		Status:          string(job.Status),
		SourceType:      string(job.SourceType),
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		ConfidenceScore: job.ConfidenceScore,
		InitiatorID:     job.InitiatorID,
		InitiatorRole:   job.InitiatorRole,
		LLMModel:        job.LLMModel,
		ErrorLog:        job.ErrorLog,
	}
}

func toAttachmentResponses(files []model.Attachment) []attachmentResponse {
	out := make([]attachmentResponse, 0, len(files))
	for _, f := range files {
		out = append(out, attachmentResponse{
			ID:          f.ID,
			FileType:    f.FileType,
			StoragePath: f.StoragePath,
			Checksum:    f.Checksum,
		})
	}
	return out
}

func toLogResponses(logs []model.ConfirmationLog) []logResponse {
	out := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, logResponse{
			ID:           l.ID,
			RecordType:   string(l.RecordType),
			RecordID:     l.RecordID,
			Action:       string(l.Action),
			ActorID:      l.ActorID,
			ActorRole:    l.ActorRole,
			Comment:      l.Comment,
			DiffSnapshot: l.DiffSnapshot,
			CreatedAt:    l.CreatedAt,
		})
	}
	return out
}

func toCategoryResponses(categories []model.FinanceCategory) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:       c.ID,
			ParentID: c.ParentID,
			Name:     c.Name,
			FullPath: c.FullPath,
			Type:     string(c.Type),
			Level:    c.Level,
		})
	}
	return out
}

func nonNilPreview(preview []model.CandidateRecord) []model.CandidateRecord {
	if preview == nil {
		return []model.CandidateRecord{}
	}
	return preview
}
