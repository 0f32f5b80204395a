package service

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-scheduler/internal/dto"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/export"
	"github.com/noah-isme/timetable-scheduler/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(timetableID, relPath string) (string, time.Time, error)
	Parse(token string) (storage.DownloadToken, error)
}

type csvRenderer interface {
	RenderSections(sections []export.Section) ([]byte, error)
}

type pdfRenderer interface {
	RenderSections(title string, sections []export.Section) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders timetable sections and, when storage is configured, keeps the
// rendered file behind a signed download link.
type ExportService struct {
	storage fileStorage
	signer  downloadSigner
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. storage and signer may be nil.
func NewExportService(storage fileStorage, signer downloadSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		storage: storage,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewLandscapePDFExporter(),
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Render produces the export file for one timetable. Storage failures are logged, not returned.
func (s *ExportService) Render(timetableID, format, groupBy string, sections []export.Section) (*dto.ExportFile, error) {
	file := &dto.ExportFile{}
	switch format {
	case "csv":
		data, err := s.csv.RenderSections(sections)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		file.ContentType = "text/csv"
		file.Data = data
	case "pdf":
		data, err := s.pdf.RenderSections(fmt.Sprintf("Timetable by %s", groupBy), sections)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		file.ContentType = "application/pdf"
		file.Data = data
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	file.Filename = fmt.Sprintf("timetable-%s-by-%s.%s", timetableID, groupBy, format)

	if s.storage == nil {
		return file, nil
	}
	relPath := fmt.Sprintf("%s/%s-%s", timetableID, s.now().UTC().Format("20060102T150405"), file.Filename)
	stored, err := s.storage.Save(relPath, file.Data)
	if err != nil {
		s.logger.Warn("export not stored", zap.String("timetable_id", timetableID), zap.Error(err))
		return file, nil
	}
	file.StoredPath = stored
	s.logger.Info("export stored", zap.String("timetable_id", timetableID), zap.String("path", stored), zap.Int("bytes", len(file.Data)))

	if s.signer == nil {
		return file, nil
	}
	token, expiresAt, err := s.signer.Generate(timetableID, stored)
	if err != nil {
		s.logger.Warn("export link not signed", zap.String("timetable_id", timetableID), zap.Error(err))
		return file, nil
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	file.DownloadURL = fmt.Sprintf("%s/exports/%s", prefix, token)
	file.ExpiresAt = &expiresAt
	return file, nil
}

// Open resolves a signed token to the stored file. The caller closes the file.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	if s.storage == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export downloads are disabled")
	}
	parsed, err := s.signer.Parse(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download link expired")
	case err != nil:
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}
	file, err := s.storage.Open(parsed.Path)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export no longer available")
	}
	return file, downloadName(parsed.Path), nil
}

// Cleanup removes stored exports older than ttl, or the configured retention when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

// downloadName strips the timestamp prefix added when the export was stored.
func downloadName(relPath string) string {
	name := path.Base(relPath)
	if idx := strings.Index(name, "-"); idx > 0 && strings.HasPrefix(name[idx+1:], "timetable-") {
		return name[idx+1:]
	}
	return name
}

// ContentTypeFor maps an export filename to its MIME type.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
