package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

var ErrSnapshotsDisabled = errors.New("snapshot uploads are not configured")

// SnapshotUploader stores an exported workbook in object storage.
// internal/storage.S3Storage implements it.
type SnapshotUploader interface {
	UploadSnapshot(ctx context.Context, payload []byte, contentType string) (string, error)
}

// ExportService renders the binding table to an xlsx workbook for admin
// download and for periodic snapshots.
type ExportService interface {
	ExportWorkbook() ([]byte, error)
	Snapshot(ctx context.Context) (string, error)
}

type exportService struct {
	repo     repository.TagBindingRepository
	uploader SnapshotUploader // optional
}

// NewExportService creates an export service. uploader may be nil when
// snapshot uploads are disabled.
func NewExportService(repo repository.TagBindingRepository, uploader SnapshotUploader) ExportService {
	return &exportService{repo: repo, uploader: uploader}
}

var exportHeader = []string{"uid", "playlist_uri", "last_track_uri", "last_pos_ms", "updated_at"}

// ExportWorkbook renders all bindings into a single-sheet workbook
func (s *exportService) ExportWorkbook() ([]byte, error) {
	bindings, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}

	for row, binding := range bindings {
		values := []interface{}{
			binding.UID,
			binding.PlaylistURI,
			binding.LastTrackURI,
			binding.LastPosMS,
			binding.UpdatedAt,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	logger.Debug("Bindings exported", map[string]interface{}{
		"rows": len(bindings),
	})
	return buf.Bytes(), nil
}

// Snapshot exports the table and uploads it to object storage, returning
// the stored object's URL
func (s *exportService) Snapshot(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", ErrSnapshotsDisabled
	}

	payload, err := s.ExportWorkbook()
	if err != nil {
		return "", err
	}

	url, err := s.uploader.UploadSnapshot(ctx, payload,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		return "", err
	}

	logger.Info("Snapshot uploaded", map[string]interface{}{
		"url":   url,
		"bytes": len(payload),
		"at":    time.Now().Format(time.RFC3339),
	})
	return url, nil
}
