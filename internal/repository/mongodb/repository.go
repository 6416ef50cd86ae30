package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
)

const (
	materialsCollection        = "materials"
	pricesCollection           = "material_prices"
	distributionsCollection    = "material_distributions"
	plotCultivationsCollection = "plot_cultivations"
	plotsCollection            = "plots"
	groupsCollection           = "groups"
	settingsCollection         = "system_settings"
	reportsCollection          = "overdue_reports"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on MongoDB. Price changes use
// multi-document transactions, so the deployment must be a replica set.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the indexes the store relies on, including the unique
// partial index that allows a single open price per material.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(pricesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "material_id", Value: 1}, {Key: "valid_from", Value: 1}}},
		{
			Keys: bson.D{{Key: "material_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_open_price_per_material").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_open", Value: true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create price indexes: %w", err)
	}

	_, err = r.db.Collection(distributionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create distribution indexes: %w", err)
	}

	r.logger.Info("mongodb indexes ensured")
	return nil
}

// GetMaterial loads a catalog entry.
func (r *MongoDBRepository) GetMaterial(ctx context.Context, id string) (models.Material, error) {
	var doc materialDocument
	err := r.db.Collection(materialsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Material{}, models.ErrMaterialNotFound
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("failed to find material %s: %w", id, err)
	}
	return doc.toModel()
}

// ListIntervals returns a material's price history ordered by valid_from.
func (r *MongoDBRepository) ListIntervals(ctx context.Context, materialID string) ([]models.PriceInterval, error) {
	opts := options.Find().SetSort(bson.D{{Key: "valid_from", Value: 1}})
	cursor, err := r.db.Collection(pricesCollection).Find(ctx, bson.M{"material_id": materialID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices of %s: %w", materialID, err)
	}
	defer cursor.Close(ctx)

	var docs []priceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode prices of %s: %w", materialID, err)
	}

	out := make([]models.PriceInterval, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// AppendInterval inserts the first open price of a material.
func (r *MongoDBRepository) AppendInterval(ctx context.Context, interval models.PriceInterval) error {
	doc, err := newPriceDocument(interval)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(pricesCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("material %s already has an open price: %w", interval.MaterialID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert price interval: %w", err)
	}
	return nil
}

// ReplaceOpenInterval closes openID and inserts next in a single transaction.
func (r *MongoDBRepository) ReplaceOpenInterval(ctx context.Context, materialID, openID string, closeAt time.Time, next models.PriceInterval) error {
	doc, err := newPriceDocument(next)
	if err != nil {
		return err
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	prices := r.db.Collection(pricesCollection)
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := prices.UpdateOne(sessCtx,
			bson.M{"_id": openID, "material_id": materialID, "is_open": true},
			bson.M{"$set": bson.M{"valid_to": closeAt, "is_open": false}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to close price interval %s: %w", openID, err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("open price %s of material %s changed: %w", openID, materialID, models.ErrConflict)
		}

		if _, err := prices.InsertOne(sessCtx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("material %s already has an open price: %w", materialID, models.ErrConflict)
			}
			return nil, fmt.Errorf("failed to insert price interval: %w", err)
		}
		return nil, nil
	})
	return err
}

// CreateDistribution inserts a new distribution record.
func (r *MongoDBRepository) CreateDistribution(ctx context.Context, record models.DistributionRecord) error {
	doc, err := newDistributionDocument(record)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(distributionsCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("distribution %s already exists: %w", record.ID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert distribution: %w", err)
	}
	return nil
}

// GetDistribution loads a record and resolves its supervisor chain.
func (r *MongoDBRepository) GetDistribution(ctx context.Context, id string) (models.DistributionAggregate, error) {
	var doc distributionDocument
	err := r.db.Collection(distributionsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DistributionAggregate{}, models.ErrDistributionNotFound
	}
	if err != nil {
		return models.DistributionAggregate{}, fmt.Errorf("failed to find distribution %s: %w", id, err)
	}

	record, err := doc.toModel()
	if err != nil {
		return models.DistributionAggregate{}, err
	}

	owner, err := r.loadOwnership(ctx, record.PlotCultivationID)
	if err != nil {
		return models.DistributionAggregate{}, err
	}
	return models.DistributionAggregate{Record: record, Ownership: owner}, nil
}

func (r *MongoDBRepository) loadOwnership(ctx context.Context, plotCultivationID string) (*models.Ownership, error) {
	var pc plotCultivationDocument
	if found, err := r.findByID(ctx, plotCultivationsCollection, plotCultivationID, &pc); err != nil || !found {
		return nil, err
	}

	var plot plotDocument
	if found, err := r.findByID(ctx, plotsCollection, pc.PlotID, &plot); err != nil || !found {
		return nil, err
	}

	var group groupDocument
	if found, err := r.findByID(ctx, groupsCollection, plot.GroupID, &group); err != nil || !found {
		return nil, err
	}

	return &models.Ownership{
		PlotCultivationID: pc.ID,
		PlotID:            plot.ID,
		GroupID:           group.ID,
		SupervisorID:      group.SupervisorID,
		FarmerID:          pc.FarmerID,
	}, nil
}

func (r *MongoDBRepository) findByID(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	if id == "" {
		return false, nil
	}
	err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find %s %s: %w", collection, id, err)
	}
	return true, nil
}

// UpdateDistribution replaces the record when its stored version still equals expectedVersion.
func (r *MongoDBRepository) UpdateDistribution(ctx context.Context, record models.DistributionRecord, expectedVersion int64) error {
	doc, err := newDistributionDocument(record)
	if err != nil {
		return err
	}

	coll := r.db.Collection(distributionsCollection)
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": record.ID, "version": expectedVersion}, doc)
	if err != nil {
		return fmt.Errorf("failed to update distribution %s: %w", record.ID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := coll.CountDocuments(ctx, bson.M{"_id": record.ID})
	if err != nil {
		return fmt.Errorf("failed to check distribution %s: %w", record.ID, err)
	}
	if count == 0 {
		return models.ErrDistributionNotFound
	}
	return fmt.Errorf("distribution %s no longer at version %d: %w", record.ID, expectedVersion, models.ErrConflict)
}

// ListPendingDistributions returns records that are neither completed nor rejected.
func (r *MongoDBRepository) ListPendingDistributions(ctx context.Context) ([]models.DistributionRecord, error) {
	filter := bson.M{"status": bson.M{"$nin": bson.A{string(models.DistributionCompleted), string(models.DistributionRejected)}}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.db.Collection(distributionsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending distributions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []distributionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode pending distributions: %w", err)
	}

	out := make([]models.DistributionRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetSetting reads a system setting by key.
func (r *MongoDBRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var doc settingDocument
	found, err := r.findByID(ctx, settingsCollection, key, &doc)
	if err != nil || !found {
		return "", false, err
	}
	return doc.Value, true, nil
}

// SaveOverdueReport saves an overdue sweep to the database.
func (r *MongoDBRepository) SaveOverdueReport(ctx context.Context, report models.OverdueReport) error {
	_, err := r.db.Collection(reportsCollection).InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert overdue report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
