package app

import (
	"context"
	"fmt"
	"time"

	"datalens/domain/core"
	domainDataset "datalens/domain/dataset"
	"datalens/domain/notify"
	"datalens/internal"
	"datalens/internal/dataset"
	"datalens/internal/errors"
	"datalens/internal/session"
	"datalens/ports"
)

// UploadOutcome reports what happened to one uploaded file
type UploadOutcome struct {
	Name     string                 `json:"name" yaml:"name"`
	Dataset  *domainDataset.Dataset `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Replaced bool                   `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	Code     string                 `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Err      error                  `json:"-" yaml:"-"`
}

// DatasetService runs uploads through the processor into a session and
// raises a notification for every file
type DatasetService struct {
	processor *dataset.Processor
	sessions  *session.Manager
	notifier  ports.Notifier
	logger    *internal.Logger
}

// NewDatasetService creates the service; a nil notifier logs instead
func NewDatasetService(processor *dataset.Processor, sessions *session.Manager, notifier ports.Notifier, logger *internal.Logger) *DatasetService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &DatasetService{
		processor: processor,
		sessions:  sessions,
		notifier:  notifier,
		logger:    logger,
	}
}

// Upload ingests every file and adds the successful ones to the session in
// upload order. Failures are reported per file and never abort the batch.
func (s *DatasetService) Upload(ctx context.Context, sessionID core.SessionID, uploads []dataset.Upload) []UploadOutcome {
	sess := s.sessions.GetOrCreate(sessionID)
	log := s.logger.With("session", sessionID.String())
	results := s.processor.IngestAll(ctx, uploads)

	outcomes := make([]UploadOutcome, len(results))
	for i, r := range results {
		outcome := UploadOutcome{Name: r.Name, Err: r.Err}
		if r.Err != nil {
			outcome.Code = errors.GetCode(r.Err)
			outcome.Error = errors.UserMessage(r.Err)
			if errors.HasCode(r.Err, errors.CodeCanceled) {
				log.Debug("[DatasetService] upload %s canceled", r.Name)
			} else {
				log.Warn("[DatasetService] upload %s failed: %v", r.Name, r.Err)
			}
			s.notify(ctx, sessionID, notify.LevelError, "Upload failed", outcome.Error, "")
		} else {
			outcome.Dataset = r.Dataset
			outcome.Replaced = sess.Add(r.Dataset)
			s.notify(ctx, sessionID, notify.LevelSuccess, "Upload complete",
				fmt.Sprintf("Successfully uploaded %s", r.Name), r.Dataset.ID)
		}
		outcomes[i] = outcome
	}
	return outcomes
}

// CreateSession starts an empty session
func (s *DatasetService) CreateSession() core.SessionID {
	return s.sessions.Create().ID()
}

// Sessions lists the live session IDs
func (s *DatasetService) Sessions() []core.SessionID {
	return s.sessions.List()
}

// DeleteSession drops a session and every dataset it holds
func (s *DatasetService) DeleteSession(ctx context.Context, sessionID core.SessionID) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.notify(ctx, sessionID, notify.LevelInfo, "Session closed", "The session and its datasets were deleted", "")
	return nil
}

// Datasets lists the datasets of a session in upload order
func (s *DatasetService) Datasets(sessionID core.SessionID) ([]*domainDataset.Dataset, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Datasets(), nil
}

// Analyze derives metrics and charts for one dataset of a session
func (s *DatasetService) Analyze(sessionID core.SessionID, datasetID core.DatasetID, palette string) (*dataset.Analysis, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ds, err := sess.Dataset(datasetID)
	if err != nil {
		return nil, err
	}
	analysis := s.processor.Analyze(ds, palette)
	return &analysis, nil
}

// Report analyses the whole session, relationships included
func (s *DatasetService) Report(sessionID core.SessionID, palette string) (*dataset.Report, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	datasets := sess.Datasets()
	report := s.processor.BuildReport(datasets, palette)
	s.logger.Debug("[DatasetService] report for %s: %d datasets, %d relationships (confidence %.2f) in %s",
		sessionID, len(datasets), len(report.Relationships), report.RelationshipConfidence, time.Since(start))
	return report, nil
}

// Relationships returns the cached relationships of a session
func (s *DatasetService) Relationships(sessionID core.SessionID) ([]domainDataset.Relationship, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Relationships(), nil
}

// RemoveDataset drops one dataset from a session
func (s *DatasetService) RemoveDataset(ctx context.Context, sessionID core.SessionID, datasetID core.DatasetID) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	ds, err := sess.Dataset(datasetID)
	if err != nil {
		return err
	}
	if err := sess.Remove(datasetID); err != nil {
		return err
	}
	s.notify(ctx, sessionID, notify.LevelInfo, "Dataset removed", fmt.Sprintf("Removed %s", ds.Name), datasetID)
	return nil
}

// ClearSession drops every dataset of a session
func (s *DatasetService) ClearSession(ctx context.Context, sessionID core.SessionID) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.Clear()
	s.notify(ctx, sessionID, notify.LevelInfo, "Session cleared", "All datasets were removed", "")
	return nil
}

func (s *DatasetService) notify(ctx context.Context, sessionID core.SessionID, level notify.Level, title, message string, datasetID core.DatasetID) {
	s.notifier.Notify(ctx, notify.Notification{
		SessionID: sessionID,
		Level:     level,
		Title:     title,
		Message:   message,
		DatasetID: datasetID,
		At:        time.Now().UTC(),
	})
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notify.Notification) {}
