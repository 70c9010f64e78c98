package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
	"expense-tracker/internal/storage"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"Date", "Description", "Category", "Amount"}

// ErrExportsDisabled is returned when no export destination is configured.
var ErrExportsDisabled = errors.New("no export destination configured")

// RowAppender appends rows to a spreadsheet and returns the written range.
type RowAppender interface {
	AppendRows(ctx context.Context, rows [][]string) (string, error)
}

// ExportOptions locates exports in object storage.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportResult reports where a published export ended up. Fields of sinks
// that are not configured stay empty.
type ExportResult struct {
	Rows       int
	Key        string
	Location   string
	URL        string
	SheetRange string
}

// ExportService renders a user's expenses as CSV and ships it to the
// configured destinations.
type ExportService interface {
	WriteCSV(ctx context.Context, ownerID string, w io.Writer) error
	Publish(ctx context.Context, ownerID string) (*ExportResult, error)
	ListExports(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error)
	DeleteExports(ctx context.Context, ownerID string) (int, error)
}

type exportService struct {
	expenses repository.ExpenseRepository
	objects  storage.Service
	sheet    RowAppender
	opts     ExportOptions
	logger   *logrus.Logger
}

// NewExportService wires the export sinks. objects and sheet may be nil.
func NewExportService(expenses repository.ExpenseRepository, objects storage.Service, sheet RowAppender, opts ExportOptions, logger *logrus.Logger) ExportService {
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if objects != nil && opts.Bucket == "" {
		objects = nil
	}
	return &exportService{
		expenses: expenses,
		objects:  objects,
		sheet:    sheet,
		opts:     opts,
		logger:   logger,
	}
}

func (s *exportService) WriteCSV(ctx context.Context, ownerID string, w io.Writer) error {
	rows, err := s.rows(ctx, ownerID)
	if err != nil {
		return err
	}
	return writeCSV(w, rows)
}

func (s *exportService) Publish(ctx context.Context, ownerID string) (*ExportResult, error) {
	if s.objects == nil && s.sheet == nil {
		return nil, ErrExportsDisabled
	}

	rows, err := s.rows(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := &ExportResult{Rows: len(rows)}

	g, gctx := errgroup.WithContext(ctx)
	if s.objects != nil {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := writeCSV(&buf, rows); err != nil {
				return err
			}

			key := path.Join(s.ownerPrefix(ownerID), fmt.Sprintf("expenses-%s.csv", timeNow().Format("20060102T150405Z")))
			location, err := s.objects.Upload(gctx, &buf, storage.UploadOptions{
				Bucket:      s.opts.Bucket,
				Key:         key,
				ContentType: "text/csv",
			})
			if err != nil {
				return err
			}
			url, err := s.objects.GetObjectURL(gctx, s.opts.Bucket, key, s.opts.URLTTL)
			if err != nil {
				return err
			}

			result.Key = key
			result.Location = location
			result.URL = url
			return nil
		})
	}
	if s.sheet != nil && len(rows) > 0 {
		g.Go(func() error {
			rng, err := s.sheet.AppendRows(gctx, rows)
			if err != nil {
				return err
			}
			result.SheetRange = rng
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("publish export: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"rows":     result.Rows,
		"key":      result.Key,
		"sheet":    result.SheetRange,
	}).Info("export published")
	return result, nil
}

func (s *exportService) ListExports(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error) {
	if s.objects == nil {
		return nil, ErrExportsDisabled
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrEmptyOwner
	}
	objects, err := s.objects.ListObjects(ctx, s.opts.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return nil, err
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return objects, nil
}

func (s *exportService) DeleteExports(ctx context.Context, ownerID string) (int, error) {
	if s.objects == nil {
		return 0, ErrExportsDisabled
	}
	if strings.TrimSpace(ownerID) == "" {
		return 0, domain.ErrEmptyOwner
	}
	return s.objects.DeletePrefix(ctx, s.opts.Bucket, s.ownerPrefix(ownerID)+"/")
}

func (s *exportService) ownerPrefix(ownerID string) string {
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix == "" {
		return ownerID
	}
	return prefix + "/" + ownerID
}

// rows returns the user's expenses as export rows, newest first, without
// the header.
func (s *exportService) rows(ctx context.Context, ownerID string) ([][]string, error) {
	expenses, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	domain.SortByCreatedAt(expenses, true)

	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.CreatedAt.Format("2006-01-02"),
			e.Description,
			e.Category,
			e.Amount.StringFixed(2),
		})
	}
	return rows, nil
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
