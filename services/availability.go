package services

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AvailabilityFinder answers "which tables should this party get".
type AvailabilityFinder struct {
	checker *ConflictChecker
	scorer  *ScoringEngine
	log     logrus.FieldLogger
}

func NewAvailabilityFinder(checker *ConflictChecker, scorer *ScoringEngine, log logrus.FieldLogger) *AvailabilityFinder {
	return &AvailabilityFinder{checker: checker, scorer: scorer, log: log}
}

// FindBestTables returns ranked recommendations, best first. An empty result
// with a nil error means nothing fits.
func (af *AvailabilityFinder) FindBestTables(ctx context.Context, q CandidateQuery) ([]Recommendation, error) {
	candidates, err := af.checker.FindCandidateTables(ctx, q)
	if err != nil {
		return nil, err
	}

	recs := af.scorer.Rank(candidates, q.PartySize, q.RequestedAt)
	af.log.WithFields(logrus.Fields{
		"party_size":   q.PartySize,
		"requested_at": q.RequestedAt,
		"candidates":   len(recs),
	}).Debug("ranked candidate tables")
	return recs, nil
}
