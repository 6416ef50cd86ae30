package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

type materialDocument struct {
	ID               string               `bson:"_id"`
	Name             string               `bson:"name"`
	Unit             string               `bson:"unit"`
	AmountPerPackage primitive.Decimal128 `bson:"amount_per_package"`
	Active           bool                 `bson:"active"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
}

type priceDocument struct {
	ID              string               `bson:"_id"`
	MaterialID      string               `bson:"material_id"`
	PricePerPackage primitive.Decimal128 `bson:"price_per_package"`
	ValidFrom       time.Time            `bson:"valid_from"`
	ValidTo         *time.Time           `bson:"valid_to"`
	IsOpen          bool                 `bson:"is_open"`
	CreatedAt       time.Time            `bson:"created_at"`
}

type distributionDocument struct {
	ID                             string               `bson:"_id"`
	MaterialID                     string               `bson:"material_id"`
	PlotCultivationID              string               `bson:"plot_cultivation_id"`
	QuantityDistributed            primitive.Decimal128 `bson:"quantity_distributed"`
	ScheduledDistributionDate      time.Time            `bson:"scheduled_distribution_date"`
	DistributionDeadline           time.Time            `bson:"distribution_deadline"`
	SupervisorConfirmationDeadline time.Time            `bson:"supervisor_confirmation_deadline"`
	FarmerConfirmationDeadline     *time.Time           `bson:"farmer_confirmation_deadline,omitempty"`
	SupervisorConfirmedBy          *string              `bson:"supervisor_confirmed_by,omitempty"`
	SupervisorConfirmedAt          *time.Time           `bson:"supervisor_confirmed_at,omitempty"`
	SupervisorNotes                string               `bson:"supervisor_notes,omitempty"`
	ActualDistributionDate         *time.Time           `bson:"actual_distribution_date,omitempty"`
	FarmerConfirmedBy              *string              `bson:"farmer_confirmed_by,omitempty"`
	FarmerConfirmedAt              *time.Time           `bson:"farmer_confirmed_at,omitempty"`
	FarmerNotes                    string               `bson:"farmer_notes,omitempty"`
	RejectedBy                     *string              `bson:"rejected_by,omitempty"`
	RejectedAt                     *time.Time           `bson:"rejected_at,omitempty"`
	RejectionReason                string               `bson:"rejection_reason,omitempty"`
	Status                         string               `bson:"status"`
	ImageURLs                      []string             `bson:"image_urls,omitempty"`
	Version                        int64                `bson:"version"`
	CreatedAt                      time.Time            `bson:"created_at"`
	UpdatedAt                      time.Time            `bson:"updated_at"`
}

type plotCultivationDocument struct {
	ID       string `bson:"_id"`
	PlotID   string `bson:"plot_id"`
	FarmerID string `bson:"farmer_id"`
}

type plotDocument struct {
	ID      string `bson:"_id"`
	GroupID string `bson:"group_id"`
}

type groupDocument struct {
	ID           string `bson:"_id"`
	SupervisorID string `bson:"supervisor_id"`
}

type settingDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func (d materialDocument) toModel() (models.Material, error) {
	amount, err := fromDecimal128(d.AmountPerPackage)
	if err != nil {
		return models.Material{}, err
	}
	return models.Material{
		ID:               d.ID,
		Name:             d.Name,
		Unit:             d.Unit,
		AmountPerPackage: amount,
		Active:           d.Active,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func newPriceDocument(p models.PriceInterval) (priceDocument, error) {
	price, err := toDecimal128(p.PricePerPackage)
	if err != nil {
		return priceDocument{}, err
	}
	return priceDocument{
		ID:              p.ID,
		MaterialID:      p.MaterialID,
		PricePerPackage: price,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
		IsOpen:          p.ValidTo == nil,
		CreatedAt:       p.CreatedAt,
	}, nil
}

func (d priceDocument) toModel() (models.PriceInterval, error) {
	price, err := fromDecimal128(d.PricePerPackage)
	if err != nil {
		return models.PriceInterval{}, err
	}
	return models.PriceInterval{
		ID:              d.ID,
		MaterialID:      d.MaterialID,
		PricePerPackage: price,
		ValidFrom:       d.ValidFrom.UTC(),
		ValidTo:         utcPtr(d.ValidTo),
		CreatedAt:       d.CreatedAt.UTC(),
	}, nil
}

func newDistributionDocument(r models.DistributionRecord) (distributionDocument, error) {
	qty, err := toDecimal128(r.QuantityDistributed)
	if err != nil {
		return distributionDocument{}, err
	}
	return distributionDocument{
		ID:                             r.ID,
		MaterialID:                     r.MaterialID,
		PlotCultivationID:              r.PlotCultivationID,
		QuantityDistributed:            qty,
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
	}, nil
}

func (d distributionDocument) toModel() (models.DistributionRecord, error) {
	qty, err := fromDecimal128(d.QuantityDistributed)
	if err != nil {
		return models.DistributionRecord{}, err
	}
	return models.DistributionRecord{
		ID:                             d.ID,
		MaterialID:                     d.MaterialID,
		PlotCultivationID:              d.PlotCultivationID,
		QuantityDistributed:            qty,
		ScheduledDistributionDate:      d.ScheduledDistributionDate.UTC(),
		DistributionDeadline:           d.DistributionDeadline.UTC(),
		SupervisorConfirmationDeadline: d.SupervisorConfirmationDeadline.UTC(),
		FarmerConfirmationDeadline:     utcPtr(d.FarmerConfirmationDeadline),
		SupervisorConfirmedBy:          d.SupervisorConfirmedBy,
		SupervisorConfirmedAt:          utcPtr(d.SupervisorConfirmedAt),
		SupervisorNotes:                d.SupervisorNotes,
		ActualDistributionDate:         utcPtr(d.ActualDistributionDate),
		FarmerConfirmedBy:              d.FarmerConfirmedBy,
		FarmerConfirmedAt:              utcPtr(d.FarmerConfirmedAt),
		FarmerNotes:                    d.FarmerNotes,
		RejectedBy:                     d.RejectedBy,
		RejectedAt:                     utcPtr(d.RejectedAt),
		RejectionReason:                d.RejectionReason,
		Status:                         models.DistributionStatus(d.Status),
		ImageURLs:                      d.ImageURLs,
		Version:                        d.Version,
		CreatedAt:                      d.CreatedAt.UTC(),
		UpdatedAt:                      d.UpdatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
