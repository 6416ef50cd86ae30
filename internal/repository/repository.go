// Package repository declares the persistence collaborators used by the pricing,
// costing and distribution services. Implementations live in the memory, mongodb
// and postgres subpackages.
package repository

import (
	"context"
	"time"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

// MaterialRepository reads the material catalog.
type MaterialRepository interface {
	// GetMaterial returns models.ErrMaterialNotFound when the id is unknown.
	GetMaterial(ctx context.Context, id string) (models.Material, error)
}

// PriceRepository stores the price history of materials.
type PriceRepository interface {
	// ListIntervals returns every interval of the material ordered by ValidFrom.
	ListIntervals(ctx context.Context, materialID string) ([]models.PriceInterval, error)
	// AppendInterval stores the first, open interval of a material.
	// It fails with models.ErrConflict when the material already has an open interval.
	AppendInterval(ctx context.Context, interval models.PriceInterval) error
	// ReplaceOpenInterval closes the open interval openID at closeAt and appends next
	// as one atomic unit. It fails with models.ErrConflict when openID is no longer open.
	ReplaceOpenInterval(ctx context.Context, materialID, openID string, closeAt time.Time, next models.PriceInterval) error
}

// DistributionRepository stores distribution records.
type DistributionRepository interface {
	CreateDistribution(ctx context.Context, record models.DistributionRecord) error
	// GetDistribution loads the record with its plot -> group -> supervisor chain.
	GetDistribution(ctx context.Context, id string) (models.DistributionAggregate, error)
	// UpdateDistribution replaces the record only if the stored version equals
	// expectedVersion, otherwise it returns models.ErrConflict.
	UpdateDistribution(ctx context.Context, record models.DistributionRecord, expectedVersion int64) error
	// ListPendingDistributions returns records that are not completed or rejected.
	ListPendingDistributions(ctx context.Context) ([]models.DistributionRecord, error)
}

// SettingsRepository exposes key/value system settings.
type SettingsRepository interface {
	// GetSetting reports found=false when the key is not stored.
	GetSetting(ctx context.Context, key string) (value string, found bool, err error)
}

// ReportRepository persists overdue sweep results.
type ReportRepository interface {
	SaveOverdueReport(ctx context.Context, report models.OverdueReport) error
}

// Store is the full set of collaborators a storage backend provides.
type Store interface {
	MaterialRepository
	PriceRepository
	DistributionRepository
	SettingsRepository
	ReportRepository
	Close(ctx context.Context) error
}
