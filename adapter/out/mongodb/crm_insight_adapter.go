// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crm_server/core/domain"
	"crm_server/core/port/out"
)

// =============================================================================
// MongoDB Insight Adapter
// =============================================================================

const collectionInsights = "insights"

// InsightAdapter implements out.InsightRepository using MongoDB. Expired
// insights are removed by a TTL index on expires_at and additionally filtered
// out of every query.
type InsightAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewInsightAdapter creates a new MongoDB insight adapter.
func NewInsightAdapter(db *mongo.Database) *InsightAdapter {
	return &InsightAdapter{
		db:         db,
		collection: db.Collection(collectionInsights),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *InsightAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "priority", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// insightDocument represents the MongoDB document structure.
type insightDocument struct {
	ID       string `bson:"id"`
	ClientID string `bson:"client_id,omitempty"`

	Type        string         `bson:"type"`
	Title       string         `bson:"title"`
	Description string         `bson:"description"`
	Data        map[string]any `bson:"data,omitempty"`
	Confidence  float64        `bson:"confidence"`
	Priority    string         `bson:"priority"`
	Actionable  bool           `bson:"actionable"`

	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
}

// =============================================================================
// Single Operations
// =============================================================================

// Save upserts an insight keyed by its id.
func (a *InsightAdapter) Save(ctx context.Context, insight *domain.Insight) error {
	doc := a.toDocument(insight)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"id": insight.ID}

	_, err := a.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	return nil
}

// SaveMany upserts a batch of insights.
func (a *InsightAdapter) SaveMany(ctx context.Context, insights []*domain.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(insights))
	for _, insight := range insights {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": insight.ID}).
			SetReplacement(a.toDocument(insight)).
			SetUpsert(true))
	}

	_, err := a.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to save insights: %w", err)
	}

	return nil
}

// FindByID retrieves an insight by ID.
func (a *InsightAdapter) FindByID(ctx context.Context, id string) (*domain.Insight, error) {
	var doc insightDocument
	filter := bson.M{"id": id}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}

	return a.toEntity(&doc), nil
}

// =============================================================================
// Query Operations
// =============================================================================

// FindByClient retrieves the newest non-expired insights of a client.
func (a *InsightAdapter) FindByClient(ctx context.Context, clientID string, limit int) ([]*domain.Insight, error) {
	filter := a.notExpired(bson.M{"client_id": clientID})
	return a.find(ctx, filter, limit)
}

// FindByType retrieves the newest non-expired insights of a type.
func (a *InsightAdapter) FindByType(ctx context.Context, insightType domain.InsightType, limit int) ([]*domain.Insight, error) {
	filter := a.notExpired(bson.M{"type": string(insightType)})
	return a.find(ctx, filter, limit)
}

// FindActionable retrieves the newest non-expired actionable insights.
func (a *InsightAdapter) FindActionable(ctx context.Context, limit int) ([]*domain.Insight, error) {
	filter := a.notExpired(bson.M{"actionable": true})
	return a.find(ctx, filter, limit)
}

// FindCritical retrieves the newest non-expired critical insights.
func (a *InsightAdapter) FindCritical(ctx context.Context, limit int) ([]*domain.Insight, error) {
	filter := a.notExpired(bson.M{"priority": string(domain.InsightPriorityCritical)})
	return a.find(ctx, filter, limit)
}

// DeleteByClient removes the insights of one type for a client.
func (a *InsightAdapter) DeleteByClient(ctx context.Context, clientID string, insightType domain.InsightType) error {
	filter := bson.M{
		"client_id": clientID,
		"type":      string(insightType),
	}

	_, err := a.collection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete insights: %w", err)
	}

	return nil
}

func (a *InsightAdapter) notExpired(filter bson.M) bson.M {
	filter["$or"] = []bson.M{
		{"expires_at": bson.M{"$exists": false}},
		{"expires_at": nil},
		{"expires_at": bson.M{"$gt": time.Now()}},
	}
	return filter
}

func (a *InsightAdapter) find(ctx context.Context, filter bson.M, limit int) ([]*domain.Insight, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer cursor.Close(ctx)

	var insights []*domain.Insight
	for cursor.Next(ctx) {
		var doc insightDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode insight: %w", err)
		}
		insights = append(insights, a.toEntity(&doc))
	}

	return insights, nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *InsightAdapter) toDocument(insight *domain.Insight) *insightDocument {
	return &insightDocument{
		ID:          insight.ID,
		ClientID:    insight.ClientID,
		Type:        string(insight.Type),
		Title:       insight.Title,
		Description: insight.Description,
		Data:        insight.Data,
		Confidence:  insight.Confidence,
		Priority:    string(insight.Priority),
		Actionable:  insight.Actionable,
		ExpiresAt:   insight.ExpiresAt,
		CreatedAt:   insight.CreatedAt,
	}
}

func (a *InsightAdapter) toEntity(doc *insightDocument) *domain.Insight {
	return &domain.Insight{
		ID:          doc.ID,
		ClientID:    doc.ClientID,
		Type:        domain.InsightType(doc.Type),
		Title:       doc.Title,
		Description: doc.Description,
		Data:        doc.Data,
		Confidence:  doc.Confidence,
		Priority:    domain.InsightPriority(doc.Priority),
		Actionable:  doc.Actionable,
		ExpiresAt:   doc.ExpiresAt,
		CreatedAt:   doc.CreatedAt,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.InsightRepository = (*InsightAdapter)(nil)
