// Package report builds date-bucketed visit counts and yearly trends on top
// of the store's flat-row accessors.
package report

import (
	"context"

	"github.com/patientdb/patientdb/internal/domain/patient"
)

type Service struct {
	store *patient.Store
}

func NewService(store *patient.Store) *Service {
	return &Service{store: store}
}

// VisitsOn counts visits on a user-supplied date (YYYY-MM-DD or YYYY/MM/DD).
// The normalized M/D/YYYY date is returned so callers can echo it back.
func (s *Service) VisitsOn(_ context.Context, rawDate string) (count int, normalized string, err error) {
	normalized, err = patient.NormalizeDate(rawDate)
	if err != nil {
		return 0, "", err
	}
	count, err = s.store.CountVisitsOn(normalized)
	return count, normalized, err
}

// YearlyTrend aggregates all visits by calendar year, ascending. An empty
// trend means no stored visit carried a parsable date.
func (s *Service) YearlyTrend(_ context.Context) []patient.YearCount {
	return s.store.YearlyTrend()
}
