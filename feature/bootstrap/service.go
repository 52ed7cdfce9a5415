package bootstrap

import (
	"tenant-bootstrapper/core/journal"

	"go.uber.org/zap"
)

// Service answers status queries about the run of this process.
type Service struct {
	tracker *Tracker
	journal *journal.Journal
	logger  *zap.Logger
}

// NewService creates a status service. j may be nil, in which case event
// queries return nothing.
func NewService(tracker *Tracker, j *journal.Journal, logger *zap.Logger) *Service {
	return &Service{tracker: tracker, journal: j, logger: logger}
}

// Status returns the current run status.
func (s *Service) Status() Status {
	return s.tracker.Snapshot()
}

// Events returns the journaled events of the current run matching f.
func (s *Service) Events(f journal.Filter) ([]journal.Record, error) {
	if s.journal == nil {
		return []journal.Record{}, nil
	}
	f.RunID = s.journal.RunID()
	recs, err := s.journal.Query(f)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []journal.Record{}
	}
	return recs, nil
}
