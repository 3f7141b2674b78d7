// Package importer turns uploaded spreadsheet files into queryable tables.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// Input describes one uploaded file.
type Input struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	FileSize    int64
	Description string
	// TableName overrides the name derived from the file name.
	TableName string
	HasHeader bool
}

// Service decodes uploads and materializes them through the spreadsheet
// repository. Decoders are keyed by lowercase file extension.
type Service struct {
	Decoders map[string]ports.SheetDecoder
	Sheets   ports.SpreadsheetRepository
	Logger   ports.Logger
}

// Import processes one file end to end and returns the catalog entry.
func (s *Service) Import(ctx context.Context, in Input) (domain.Spreadsheet, error) {
	if s.Sheets == nil || s.Logger == nil || len(s.Decoders) == 0 {
		return domain.Spreadsheet{}, errors.New("importer.Service dependencies not satisfied")
	}
	if in.Reader == nil {
		return domain.Spreadsheet{}, errors.New("no file content")
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return domain.Spreadsheet{}, errors.New("file name must not be empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	decoder, ok := s.Decoders[ext]
	if !ok {
		return domain.Spreadsheet{}, fmt.Errorf("unsupported file type %q", ext)
	}

	data, err := decoder.Decode(in.Reader, in.HasHeader)
	if err != nil {
		return domain.Spreadsheet{}, fmt.Errorf("decode %s: %w", name, err)
	}

	meta := &domain.Spreadsheet{
		FileName:    name,
		ContentType: in.ContentType,
		FileSize:    in.FileSize,
		UploadedAt:  time.Now().UTC(),
		Description: in.Description,
		TableName:   strings.TrimSpace(in.TableName),
	}
	if err := s.Sheets.Create(ctx, meta, data); err != nil {
		return domain.Spreadsheet{}, fmt.Errorf("store %s: %w", name, err)
	}

	s.Logger.Info("spreadsheet imported", map[string]interface{}{
		"file":  name,
		"table": meta.TableName,
		"rows":  meta.RowCount,
	})
	return *meta, nil
}

// List returns the spreadsheet catalog.
func (s *Service) List(ctx context.Context) ([]domain.Spreadsheet, error) {
	if s.Sheets == nil {
		return nil, errors.New("importer.Service dependencies not satisfied")
	}
	return s.Sheets.List(ctx)
}

// Delete removes a spreadsheet and its data table.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Sheets == nil {
		return errors.New("importer.Service dependencies not satisfied")
	}
	return s.Sheets.Delete(ctx, id)
}
