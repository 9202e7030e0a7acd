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
// MongoDB Interaction Adapter
// =============================================================================

const collectionInteractions = "interactions"

// InteractionAdapter implements out.InteractionRepository using MongoDB.
type InteractionAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewInteractionAdapter creates a new MongoDB interaction adapter.
func NewInteractionAdapter(db *mongo.Database) *InteractionAdapter {
	return &InteractionAdapter{
		db:         db,
		collection: db.Collection(collectionInteractions),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *InteractionAdapter) EnsureIndexes(ctx context.Context) error {
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
				{Key: "client_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// interactionDocument represents the MongoDB document structure.
type interactionDocument struct {
	ID       string `bson:"id"`
	ClientID string `bson:"client_id"`

	// Classification
	Type      string   `bson:"type"`
	Content   string   `bson:"content"`
	Value     *float64 `bson:"value,omitempty"`
	Category  string   `bson:"category,omitempty"`
	Sentiment string   `bson:"sentiment"`

	Metadata map[string]any `bson:"metadata,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
}

// =============================================================================
// Single Operations
// =============================================================================

// Save upserts an interaction keyed by its id.
func (a *InteractionAdapter) Save(ctx context.Context, interaction *domain.Interaction) error {
	doc := a.toDocument(interaction)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"id": interaction.ID}

	_, err := a.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}

	return nil
}

// FindByID retrieves an interaction by ID.
func (a *InteractionAdapter) FindByID(ctx context.Context, id string) (*domain.Interaction, error) {
	var doc interactionDocument
	filter := bson.M{"id": id}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}

	return a.toEntity(&doc), nil
}

// =============================================================================
// Query Operations
// =============================================================================

// FindByClient retrieves the newest interactions of a client.
func (a *InteractionAdapter) FindByClient(ctx context.Context, clientID string, limit int) ([]*domain.Interaction, error) {
	filter := bson.M{"client_id": clientID}
	return a.find(ctx, filter, limit)
}

// FindByClientAndType retrieves the newest interactions of a client filtered
// by type.
func (a *InteractionAdapter) FindByClientAndType(ctx context.Context, clientID string, interactionType domain.InteractionType, limit int) ([]*domain.Interaction, error) {
	filter := bson.M{
		"client_id": clientID,
		"type":      string(interactionType),
	}
	return a.find(ctx, filter, limit)
}

func (a *InteractionAdapter) find(ctx context.Context, filter bson.M, limit int) ([]*domain.Interaction, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer cursor.Close(ctx)

	var interactions []*domain.Interaction
	for cursor.Next(ctx) {
		var doc interactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode interaction: %w", err)
		}
		interactions = append(interactions, a.toEntity(&doc))
	}

	return interactions, nil
}

// =============================================================================
// Aggregates
// =============================================================================

// CountByClient returns the total interaction count of a client.
func (a *InteractionAdapter) CountByClient(ctx context.Context, clientID string) (int64, error) {
	count, err := a.collection.CountDocuments(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

// TotalPurchaseValue sums the monetary value of all purchases of a client.
func (a *InteractionAdapter) TotalPurchaseValue(ctx context.Context, clientID string) (float64, error) {
	pipeline := []bson.M{
		{
			"$match": bson.M{
				"client_id": clientID,
				"type":      string(domain.InteractionPurchase),
				"value":     bson.M{"$gt": 0},
			},
		},
		{
			"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$value"},
			},
		},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum purchase value: %w", err)
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		var result struct {
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode purchase total: %w", err)
		}
		return result.Total, nil
	}

	return 0, nil
}

// LastInteractionAt returns the timestamp of the newest interaction, or nil
// for clients without history.
func (a *InteractionAdapter) LastInteractionAt(ctx context.Context, clientID string) (*time.Time, error) {
	findOpts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"created_at": 1})

	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err := a.collection.FindOne(ctx, bson.M{"client_id": clientID}, findOpts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last interaction: %w", err)
	}

	return &doc.CreatedAt, nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *InteractionAdapter) toDocument(interaction *domain.Interaction) *interactionDocument {
	return &interactionDocument{
		ID:        interaction.ID,
		ClientID:  interaction.ClientID,
		Type:      string(interaction.Type),
		Content:   interaction.Content,
		Value:     interaction.Value,
		Category:  interaction.Category,
		Sentiment: string(interaction.Sentiment),
		Metadata:  interaction.Metadata,
		CreatedAt: interaction.CreatedAt,
	}
}

func (a *InteractionAdapter) toEntity(doc *interactionDocument) *domain.Interaction {
	return &domain.Interaction{
		ID:        doc.ID,
		ClientID:  doc.ClientID,
		Type:      domain.InteractionType(doc.Type),
		Content:   doc.Content,
		Value:     doc.Value,
		Category:  doc.Category,
		Sentiment: domain.SentimentType(doc.Sentiment),
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.InteractionRepository = (*InteractionAdapter)(nil)
