package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/tenderboard/internal/apperror"
	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/repository"
)

// TenderService handles ingestion and querying of tender records.
type TenderService struct {
	tenders repository.TenderRepository
	logger  *slog.Logger
}

// NewTenderService creates a TenderService.
func NewTenderService(tenders repository.TenderRepository, logger *slog.Logger) *TenderService {
	return &TenderService{
		tenders: tenders,
		logger:  logger,
	}
}

// IngestInput is one tender record as pushed by the pipeline. Code and Title
// are required; everything else defaults to its zero value.
type IngestInput struct {
	Code        string
	Title       string
	Description string
	Deadline    *time.Time
	AISummary   string
	AIScore     int
}

// Ingest validates and upserts one pipeline-pushed tender.
//
// The validation error names every missing field at once, so the pipeline
// operator fixes the payload in one round trip instead of replaying it per
// field.
func (s *TenderService) Ingest(ctx context.Context, in IngestInput) (*model.Tender, error) {
	var missing []string
	if in.Code == "" {
		missing = append(missing, "code")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return nil, apperror.ValidationFailed(missing[0],
			"missing required fields: "+strings.Join(missing, ", "))
	}

	tender := &model.Tender{
		Code:        in.Code,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		AISummary:   in.AISummary,
		AIScore:     in.AIScore,
	}

	stored, err := s.tenders.Upsert(ctx, tender)
	if err != nil {
		return nil, fmt.Errorf("service/tender: ingesting %s: %w", in.Code, err)
	}

	s.logger.Info("tender ingested",
		slog.String("code", stored.Code),
		slog.Int("aiScore", stored.AIScore),
	)

	return stored, nil
}

// List returns all tenders, best AI score first.
func (s *TenderService) List(ctx context.Context) ([]model.Tender, error) {
	tenders, err := s.tenders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/tender: listing: %w", err)
	}
	return tenders, nil
}
