// Package postgres implements repository.Store with gorm on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
)

var _ repository.Store = (*Repository)(nil)

// Repository is the PostgreSQL storage backend.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRepository opens a connection pool on dsn and optionally migrates the schema.
func NewRepository(ctx context.Context, dsn string, autoMigrate bool, logger *zap.Logger) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := NewFromDB(db, logger)
	if autoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// NewFromDB wraps an existing gorm handle.
func NewFromDB(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates or updates every table the store uses.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	r.logger.Info("postgres schema migrated")
	return nil
}

func (r *Repository) GetMaterial(ctx context.Context, id string) (models.Material, error) {
	var row materialRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Material{}, models.ErrMaterialNotFound
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("failed to find material %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *Repository) ListIntervals(ctx context.Context, materialID string) ([]models.PriceInterval, error) {
	var rows []priceRow
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("valid_from ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prices of %s: %w", materialID, err)
	}

	out := make([]models.PriceInterval, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *Repository) AppendInterval(ctx context.Context, interval models.PriceInterval) error {
	row := newPriceRow(interval)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("material %s already has an open price: %w", interval.MaterialID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to save price interval: %w", err)
	}
	return nil
}

// ReplaceOpenInterval locks the open row, closes it and inserts next in one transaction.
func (r *Repository) ReplaceOpenInterval(ctx context.Context, materialID, openID string, closeAt time.Time, next models.PriceInterval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open priceRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND material_id = ? AND valid_to IS NULL", openID, materialID).
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("open price %s of material %s changed: %w", openID, materialID, models.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to lock price interval %s: %w", openID, err)
		}

		if err := tx.Model(&open).Update("valid_to", closeAt).Error; err != nil {
			return fmt.Errorf("failed to close price interval %s: %w", openID, err)
		}

		row := newPriceRow(next)
		err = tx.Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("material %s already has an open price: %w", materialID, models.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to save price interval: %w", err)
		}
		return nil
	})
}

func (r *Repository) CreateDistribution(ctx context.Context, record models.DistributionRecord) error {
	row := newDistributionRow(record)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("distribution %s already exists: %w", record.ID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}
	return nil
}

func (r *Repository) GetDistribution(ctx context.Context, id string) (models.DistributionAggregate, error) {
	db := r.db.WithContext(ctx)

	var row distributionRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DistributionAggregate{}, models.ErrDistributionNotFound
	}
	if err != nil {
		return models.DistributionAggregate{}, fmt.Errorf("failed to find distribution %s: %w", id, err)
	}

	var owner ownershipRow
	res := db.Table("plot_cultivations AS pc").
		Select("pc.id AS plot_cultivation_id, pc.plot_id, p.group_id, g.supervisor_id, pc.farmer_id").
		Joins("JOIN plots AS p ON p.id = pc.plot_id").
		Joins("JOIN groups AS g ON g.id = p.group_id").
		Where("pc.id = ?", row.PlotCultivationID).
		Limit(1).
		Scan(&owner)
	if res.Error != nil {
		return models.DistributionAggregate{}, fmt.Errorf("failed to load ownership of %s: %w", row.PlotCultivationID, res.Error)
	}

	agg := models.DistributionAggregate{Record: row.toModel()}
	if res.RowsAffected > 0 {
		agg.Ownership = owner.toModel()
	}
	return agg, nil
}

// UpdateDistribution writes every column when the stored version equals expectedVersion.
func (r *Repository) UpdateDistribution(ctx context.Context, record models.DistributionRecord, expectedVersion int64) error {
	db := r.db.WithContext(ctx)
	row := newDistributionRow(record)

	res := db.Model(&distributionRow{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Select("*").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update distribution %s: %w", record.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&distributionRow{}).Where("id = ?", record.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check distribution %s: %w", record.ID, err)
	}
	if count == 0 {
		return models.ErrDistributionNotFound
	}
	return fmt.Errorf("distribution %s no longer at version %d: %w", record.ID, expectedVersion, models.ErrConflict)
}

func (r *Repository) ListPendingDistributions(ctx context.Context) ([]models.DistributionRecord, error) {
	var rows []distributionRow
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{string(models.DistributionCompleted), string(models.DistributionRejected)}).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending distributions: %w", err)
	}

	out := make([]models.DistributionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var row settingRow
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (r *Repository) SaveOverdueReport(ctx context.Context, report models.OverdueReport) error {
	row := newOverdueReportRow(report)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save overdue report: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close(_ context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
