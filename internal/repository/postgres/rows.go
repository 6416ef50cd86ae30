package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

type materialRow struct {
	ID               string          `gorm:"primaryKey;type:varchar(64)"`
	Name             string          `gorm:"not null"`
	Unit             string          `gorm:"type:varchar(32)"`
	AmountPerPackage decimal.Decimal `gorm:"type:numeric(18,4);not null;default:1"`
	Active           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (materialRow) TableName() string { return "materials" }

// priceRow allows at most one row with a NULL valid_to per material.
type priceRow struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)"`
	MaterialID      string          `gorm:"type:varchar(64);not null;index:idx_material_prices_valid_from,priority:1;uniqueIndex:uniq_open_price_per_material,where:valid_to IS NULL"`
	PricePerPackage decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ValidFrom       time.Time       `gorm:"not null;index:idx_material_prices_valid_from,priority:2"`
	ValidTo         *time.Time
	CreatedAt       time.Time
}

func (priceRow) TableName() string { return "material_prices" }

type distributionRow struct {
	ID                             string          `gorm:"primaryKey;type:varchar(64)"`
	MaterialID                     string          `gorm:"type:varchar(64);not null"`
	PlotCultivationID              string          `gorm:"type:varchar(64);not null;index"`
	QuantityDistributed            decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ScheduledDistributionDate      time.Time       `gorm:"not null"`
	DistributionDeadline           time.Time       `gorm:"not null"`
	SupervisorConfirmationDeadline time.Time       `gorm:"not null"`
	FarmerConfirmationDeadline     *time.Time
	SupervisorConfirmedBy          *string
	SupervisorConfirmedAt          *time.Time
	SupervisorNotes                string
	ActualDistributionDate         *time.Time
	FarmerConfirmedBy              *string
	FarmerConfirmedAt              *time.Time
	FarmerNotes                    string
	RejectedBy                     *string
	RejectedAt                     *time.Time
	RejectionReason                string
	Status                         string   `gorm:"type:varchar(32);not null;index"`
	ImageURLs                      []string `gorm:"serializer:json;type:text"`
	Version                        int64    `gorm:"not null;default:1"`
	CreatedAt                      time.Time
	UpdatedAt                      time.Time `gorm:"autoUpdateTime:false"`
}

func (distributionRow) TableName() string { return "material_distributions" }

type plotCultivationRow struct {
	ID       string `gorm:"primaryKey;type:varchar(64)"`
	PlotID   string `gorm:"type:varchar(64);not null;index"`
	FarmerID string `gorm:"type:varchar(64)"`
}

func (plotCultivationRow) TableName() string { return "plot_cultivations" }

type plotRow struct {
	ID      string `gorm:"primaryKey;type:varchar(64)"`
	GroupID string `gorm:"type:varchar(64);index"`
}

func (plotRow) TableName() string { return "plots" }

type groupRow struct {
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	SupervisorID string `gorm:"type:varchar(64)"`
}

func (groupRow) TableName() string { return "groups" }

type settingRow struct {
	Key   string `gorm:"primaryKey;type:varchar(128)"`
	Value string `gorm:"not null"`
}

func (settingRow) TableName() string { return "system_settings" }

type overdueReportRow struct {
	ID                     uint      `gorm:"primaryKey"`
	GeneratedAt            time.Time `gorm:"not null;index"`
	PendingCount           int
	OverdueCount           int
	SupervisorOverdueIDs   []string `gorm:"serializer:json;type:text"`
	FarmerOverdueIDs       []string `gorm:"serializer:json;type:text"`
	DistributionOverdueIDs []string `gorm:"serializer:json;type:text"`
}

func (overdueReportRow) TableName() string { return "overdue_reports" }

// ownershipRow is the projection of the plot_cultivations -> plots -> groups join.
type ownershipRow struct {
	PlotCultivationID string
	PlotID            string
	GroupID           string
	SupervisorID      string
	FarmerID          string
}

func allModels() []interface{} {
	return []interface{}{
		&materialRow{},
		&priceRow{},
		&distributionRow{},
		&plotCultivationRow{},
		&plotRow{},
		&groupRow{},
		&settingRow{},
		&overdueReportRow{},
	}
}

func (r materialRow) toModel() models.Material {
	return models.Material{
		ID:               r.ID,
		Name:             r.Name,
		Unit:             r.Unit,
		AmountPerPackage: r.AmountPerPackage,
		Active:           r.Active,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func newPriceRow(p models.PriceInterval) priceRow {
	return priceRow{
		ID:              p.ID,
		MaterialID:      p.MaterialID,
		PricePerPackage: p.PricePerPackage,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
		CreatedAt:       p.CreatedAt,
	}
}

func (r priceRow) toModel() models.PriceInterval {
	return models.PriceInterval{
		ID:              r.ID,
		MaterialID:      r.MaterialID,
		PricePerPackage: r.PricePerPackage,
		ValidFrom:       r.ValidFrom.UTC(),
		ValidTo:         utcPtr(r.ValidTo),
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func newDistributionRow(r models.DistributionRecord) distributionRow {
	return distributionRow{
		ID:                             r.ID,
		MaterialID:                     r.MaterialID,
		PlotCultivationID:              r.PlotCultivationID,
		QuantityDistributed:            r.QuantityDistributed,
		ScheduledDistributionDate:      r.ScheduledDistributionDate,
		DistributionDeadline:           r.DistributionDeadline,
		SupervisorConfirmationDeadline: r.SupervisorConfirmationDeadline,
		FarmerConfirmationDeadline:     r.FarmerConfirmationDeadline,
		SupervisorConfirmedBy:          r.SupervisorConfirmedBy,
		SupervisorConfirmedAt:          r.SupervisorConfirmedAt,
		SupervisorNotes:                r.SupervisorNotes,
		ActualDistributionDate:         r.ActualDistributionDate,
		FarmerConfirmedBy:              r.FarmerConfirmedBy,
		FarmerConfirmedAt:              r.FarmerConfirmedAt,
		FarmerNotes:                    r.FarmerNotes,
		RejectedBy:                     r.RejectedBy,
		RejectedAt:                     r.RejectedAt,
		RejectionReason:                r.RejectionReason,
		Status:                         string(r.Status),
		ImageURLs:                      r.ImageURLs,
		Version:                        r.Version,
		CreatedAt:                      r.CreatedAt,
		UpdatedAt:                      r.UpdatedAt,
	}
}

func (r distributionRow) toModel() models.DistributionRecord {
	return models.DistributionRecord{
		ID:                             r.ID,
		MaterialID:                     r.MaterialID,
		PlotCultivationID:              r.PlotCultivationID,
		QuantityDistributed:            r.QuantityDistributed,
		ScheduledDistributionDate:      r.ScheduledDistributionDate.UTC(),
		DistributionDeadline:           r.DistributionDeadline.UTC(),
		SupervisorConfirmationDeadline: r.SupervisorConfirmationDeadline.UTC(),
		FarmerConfirmationDeadline:     utcPtr(r.FarmerConfirmationDeadline),
		SupervisorConfirmedBy:          r.SupervisorConfirmedBy,
		SupervisorConfirmedAt:          utcPtr(r.SupervisorConfirmedAt),
		SupervisorNotes:                r.SupervisorNotes,
		ActualDistributionDate:         utcPtr(r.ActualDistributionDate),
		FarmerConfirmedBy:              r.FarmerConfirmedBy,
		FarmerConfirmedAt:              utcPtr(r.FarmerConfirmedAt),
		FarmerNotes:                    r.FarmerNotes,
		RejectedBy:                     r.RejectedBy,
		RejectedAt:                     utcPtr(r.RejectedAt),
		RejectionReason:                r.RejectionReason,
		Status:                         models.DistributionStatus(r.Status),
		ImageURLs:                      r.ImageURLs,
		Version:                        r.Version,
		CreatedAt:                      r.CreatedAt.UTC(),
		UpdatedAt:                      r.UpdatedAt.UTC(),
	}
}

func newOverdueReportRow(r models.OverdueReport) overdueReportRow {
	return overdueReportRow{
		GeneratedAt:            r.GeneratedAt,
		PendingCount:           r.PendingCount,
		OverdueCount:           r.OverdueCount,
		SupervisorOverdueIDs:   r.SupervisorOverdueIDs,
		FarmerOverdueIDs:       r.FarmerOverdueIDs,
		DistributionOverdueIDs: r.DistributionOverdueIDs,
	}
}

func (o ownershipRow) toModel() *models.Ownership {
	if o.GroupID == "" {
		return nil
	}
	return &models.Ownership{
		PlotCultivationID: o.PlotCultivationID,
		PlotID:            o.PlotID,
		GroupID:           o.GroupID,
		SupervisorID:      o.SupervisorID,
		FarmerID:          o.FarmerID,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
