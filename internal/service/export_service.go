package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/repository/storage"
)

// ExportURLExpiry is how long a generated download link stays valid
const ExportURLExpiry = 15 * time.Minute

// MaxExportRange caps the report window to keep exports bounded
const MaxExportRange = 366 * 24 * time.Hour

// ExportService renders completed time entries to CSV and stores the
// file in object storage behind a presigned download URL
type ExportService struct {
	entryRepo    domain.TimeEntryRepository
	categoryRepo domain.CategoryRepository
	memberRepo   domain.WorkspaceMemberRepository
	exportRepo   storage.ExportRepository
	clock        Clock
}

// NewExportService creates a new ExportService
func NewExportService(
	entryRepo domain.TimeEntryRepository,
	categoryRepo domain.CategoryRepository,
	memberRepo domain.WorkspaceMemberRepository,
	exportRepo storage.ExportRepository,
	clock Clock,
) *ExportService {
	if clock == nil {
		clock = RealClock{}
	}
	return &ExportService{
		entryRepo:    entryRepo,
		categoryRepo: categoryRepo,
		memberRepo:   memberRepo,
		exportRepo:   exportRepo,
		clock:        clock,
	}
}

// ExportResult is the outcome of a report export
type ExportResult struct {
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	EntryCount  int       `json:"entryCount"`
}

// ExportCSV renders all entries in [from, to) to CSV and returns a
// presigned download URL
func (s *ExportService) ExportCSV(ctx context.Context, userID uuid.UUID, workspaceID int32, from, to time.Time) (*ExportResult, error) {
	isMember, err := s.memberRepo.IsMember(userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrNotWorkspaceMember
	}

	if !to.After(from) || to.Sub(from) > MaxExportRange {
		return nil, domain.ErrInvalidExportRange
	}

	entries, err := s.entryRepo.ListByRange(workspaceID, from, to)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int32]*domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	data, err := renderCSV(entries, byID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	objectPath := fmt.Sprintf("exports/%d/%s-%s-%s.csv",
		workspaceID,
		from.Format("20060102"),
		to.Format("20060102"),
		now.Format("20060102T150405Z"),
	)

	if _, err := s.exportRepo.Upload(ctx, objectPath, bytes.NewReader(data), "text/csv", int64(len(data))); err != nil {
		return nil, err
	}

	url, err := s.exportRepo.GeneratePresignedURL(ctx, objectPath, ExportURLExpiry)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		DownloadURL: url,
		ExpiresAt:   now.Add(ExportURLExpiry),
		EntryCount:  len(entries),
	}, nil
}

var csvHeader = []string{
	"entry_id", "user_id", "start_time", "end_time",
	"duration_seconds", "category", "is_break", "description", "billable_amount",
}

func renderCSV(entries []*domain.TimeEntry, categories map[int32]*domain.Category) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		categoryName := ""
		amount := decimal.Zero
		if category, ok := categories[entry.CategoryID]; ok {
			categoryName = category.Name
			amount = entry.BillableAmount(category.HourlyRate, category.IsBillable)
		}
		description := ""
		if entry.Description != nil {
			description = *entry.Description
		}

		record := []string{
			entry.ID.String(),
			entry.UserID.String(),
			entry.StartTime.UTC().Format(time.RFC3339),
			entry.EndTime.UTC().Format(time.RFC3339),
			strconv.FormatInt(entry.DurationSeconds, 10),
			categoryName,
			strconv.FormatBool(entry.IsBreak),
			description,
			amount.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
