// Package memory is an in-process Store used by tests and by the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	materials map[string]models.Material

	// Price intervals per material, kept sorted by ValidFrom.
	prices map[string][]models.PriceInterval

	distributions map[string]models.DistributionRecord

	// plot cultivation id -> ownership chain
	ownership map[string]models.Ownership

	settings map[string]string
	reports  []models.OverdueReport
}

func New() *Store {
	return &Store{
		materials:     make(map[string]models.Material),
		prices:        make(map[string][]models.PriceInterval),
		distributions: make(map[string]models.DistributionRecord),
		ownership:     make(map[string]models.Ownership),
		settings:      make(map[string]string),
	}
}

// PutMaterial inserts or replaces a catalog entry.
func (s *Store) PutMaterial(m models.Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
}

// PutOwnership registers the supervisor chain of a plot cultivation.
func (s *Store) PutOwnership(o models.Ownership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownership[o.PlotCultivationID] = o
}

// PutSetting stores a system setting value.
func (s *Store) PutSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Reports returns the overdue reports saved so far.
func (s *Store) Reports() []models.OverdueReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.OverdueReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// Material store implementation

func (s *Store) GetMaterial(_ context.Context, id string) (models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.materials[id]
	if !ok {
		return models.Material{}, models.ErrMaterialNotFound
	}
	return m, nil
}

// Price store implementation

func (s *Store) ListIntervals(_ context.Context, materialID string) ([]models.PriceInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.prices[materialID]
	out := make([]models.PriceInterval, len(src))
	for i, p := range src {
		out[i] = cloneInterval(p)
	}
	return out, nil
}

func (s *Store) AppendInterval(_ context.Context, interval models.PriceInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := openIndex(s.prices[interval.MaterialID]); ok {
		return fmt.Errorf("material %s already has an open price: %w", interval.MaterialID, models.ErrConflict)
	}
	s.insertSorted(interval)
	return nil
}

func (s *Store) ReplaceOpenInterval(_ context.Context, materialID, openID string, closeAt time.Time, next models.PriceInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.prices[materialID]
	idx, ok := openIndex(list)
	if !ok || list[idx].ID != openID {
		return fmt.Errorf("open price %s of material %s changed: %w", openID, materialID, models.ErrConflict)
	}

	closed := closeAt
	list[idx].ValidTo = &closed
	s.insertSorted(next)
	return nil
}

func (s *Store) insertSorted(p models.PriceInterval) {
	list := append(s.prices[p.MaterialID], cloneInterval(p))
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ValidFrom.Before(list[j].ValidFrom)
	})
	s.prices[p.MaterialID] = list
}

func openIndex(list []models.PriceInterval) (int, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].IsOpen() {
			return i, true
		}
	}
	return -1, false
}

// Distribution store implementation

func (s *Store) CreateDistribution(_ context.Context, record models.DistributionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.distributions[record.ID]; exists {
		return fmt.Errorf("distribution %s already exists: %w", record.ID, models.ErrConflict)
	}
	s.distributions[record.ID] = cloneRecord(record)
	return nil
}

func (s *Store) GetDistribution(_ context.Context, id string) (models.DistributionAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.distributions[id]
	if !ok {
		return models.DistributionAggregate{}, models.ErrDistributionNotFound
	}

	agg := models.DistributionAggregate{Record: cloneRecord(rec)}
	if o, ok := s.ownership[rec.PlotCultivationID]; ok && o.GroupID != "" {
		owner := o
		agg.Ownership = &owner
	}
	return agg, nil
}

func (s *Store) UpdateDistribution(_ context.Context, record models.DistributionRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.distributions[record.ID]
	if !ok {
		return models.ErrDistributionNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("distribution %s at version %d, expected %d: %w", record.ID, current.Version, expectedVersion, models.ErrConflict)
	}
	s.distributions[record.ID] = cloneRecord(record)
	return nil
}

func (s *Store) ListPendingDistributions(_ context.Context) ([]models.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DistributionRecord, 0, len(s.distributions))
	for _, rec := range s.distributions {
		if rec.Status.IsTerminal() {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Settings and reports

func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Store) SaveOverdueReport(_ context.Context, report models.OverdueReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func cloneInterval(p models.PriceInterval) models.PriceInterval {
	if p.ValidTo != nil {
		to := *p.ValidTo
		p.ValidTo = &to
	}
	return p
}

func cloneRecord(r models.DistributionRecord) models.DistributionRecord {
	r.FarmerConfirmationDeadline = cloneTime(r.FarmerConfirmationDeadline)
	r.SupervisorConfirmedAt = cloneTime(r.SupervisorConfirmedAt)
	r.ActualDistributionDate = cloneTime(r.ActualDistributionDate)
	r.FarmerConfirmedAt = cloneTime(r.FarmerConfirmedAt)
	r.RejectedAt = cloneTime(r.RejectedAt)
	r.SupervisorConfirmedBy = cloneString(r.SupervisorConfirmedBy)
	r.FarmerConfirmedBy = cloneString(r.FarmerConfirmedBy)
	r.RejectedBy = cloneString(r.RejectedBy)
	if r.ImageURLs != nil {
		r.ImageURLs = append([]string(nil), r.ImageURLs...)
	}
	return r
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
