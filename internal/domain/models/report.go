package models

import "time"

// OverdueReport is the aggregated result of one overdue sweep over pending distributions.
type OverdueReport struct {
	GeneratedAt            time.Time `bson:"generated_at" json:"generated_at"`
	PendingCount           int       `bson:"pending_count" json:"pending_count"`
	SupervisorOverdueIDs   []string  `bson:"supervisor_overdue_ids" json:"supervisor_overdue_ids"`
	FarmerOverdueIDs       []string  `bson:"farmer_overdue_ids" json:"farmer_overdue_ids"`
	DistributionOverdueIDs []string  `bson:"distribution_overdue_ids" json:"distribution_overdue_ids"`
	OverdueCount           int       `bson:"overdue_count" json:"overdue_count"`
}
