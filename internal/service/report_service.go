package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

// CronTaskReportCleanup is the metrics label of the expired report sweep.
const CronTaskReportCleanup = "report_cleanup"

type transcriptRenderer interface {
	TranscriptPDF(ctx context.Context, session models.Session) ([]byte, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string) (ownerID, relPath string, expiresAt time.Time, err error)
	TTL() time.Duration
}

// ReportService stores generated transcripts and serves them through signed links.
type ReportService struct {
	transcripts transcriptRenderer
	storage     reportStorage
	signer      urlSigner
	downloadURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs a ReportService. downloadPath is the route the token is appended to.
func NewReportService(transcripts transcriptRenderer, storage reportStorage, signer urlSigner, downloadPath string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		transcripts: transcripts,
		storage:     storage,
		signer:      signer,
		downloadURL: downloadPath,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateTranscript renders the session student's transcript, stores it and returns a signed link.
func (s *ReportService) CreateTranscript(ctx context.Context, session models.Session) (*models.StoredReport, error) {
	data, err := s.transcripts.TranscriptPDF(ctx, session)
	if err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format("20060102-150405")
	name := filepath.Join("transcripts", session.UserID, "transcript-"+stamp+".pdf")
	rel, err := s.storage.Save(name, data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store transcript")
	}
	token, expiresAt, err := s.signer.Generate(session.UserID, rel)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	s.logger.Info("transcript stored", zap.String("user_id", session.UserID), zap.String("path", rel))
	return &models.StoredReport{
		ID:          "transcript-" + stamp,
		Filename:    filepath.Base(rel),
		DownloadURL: s.downloadURL + "?token=" + url.QueryEscape(token),
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// Download resolves a signed token. Only the owner or an admin may use it.
func (s *ReportService) Download(ctx context.Context, session models.Session, token string) (*ExportFile, error) {
	ownerID, rel, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if ownerID != session.UserID && !session.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token belongs to another user")
	}
	data, err := s.storage.Read(rel)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	return &ExportFile{Filename: filepath.Base(rel), ContentType: "application/pdf", Data: data}, nil
}

// Cleanup removes stored files whose links can no longer be valid.
func (s *ReportService) Cleanup(ctx context.Context) (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.signer.TTL())
	if err != nil {
		return 0, fmt.Errorf("cleanup reports: %w", err)
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

// Task adapts Cleanup for the cron scheduler.
func (s *ReportService) Task() CronTask {
	return func(ctx context.Context) error {
		_, err := s.Cleanup(ctx)
		return err
	}
}
