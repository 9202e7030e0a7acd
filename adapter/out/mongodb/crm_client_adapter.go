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
// MongoDB Client Adapter
// =============================================================================

const collectionClients = "clients"

// ClientAdapter implements out.ClientRepository using MongoDB.
type ClientAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewClientAdapter creates a new MongoDB client adapter.
func NewClientAdapter(db *mongo.Database) *ClientAdapter {
	return &ClientAdapter{
		db:         db,
		collection: db.Collection(collectionClients),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ClientAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "whatsapp_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "segment", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "churn_risk", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// clientDocument represents the MongoDB document structure.
type clientDocument struct {
	ID             string `bson:"id"`
	WhatsappNumber string `bson:"whatsapp_number"`

	// Profile
	Name       string  `bson:"name,omitempty"`
	Email      string  `bson:"email,omitempty"`
	Age        int     `bson:"age,omitempty"`
	City       string  `bson:"city,omitempty"`
	Profession string  `bson:"profession,omitempty"`
	Income     float64 `bson:"income,omitempty"`

	// Derived scores
	Segment         string `bson:"segment"`
	EngagementScore int    `bson:"engagement_score"`
	ChurnRisk       string `bson:"churn_risk"`

	// Timestamps
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// =============================================================================
// Single Operations
// =============================================================================

// Save upserts a client keyed by its id.
func (a *ClientAdapter) Save(ctx context.Context, client *domain.Client) error {
	doc := a.toDocument(client)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"id": client.ID}

	_, err := a.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}

	return nil
}

// FindByID retrieves a client by ID.
func (a *ClientAdapter) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var doc clientDocument
	filter := bson.M{"id": id}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return a.toEntity(&doc), nil
}

// FindByWhatsappNumber retrieves a client by its canonical WhatsApp number.
func (a *ClientAdapter) FindByWhatsappNumber(ctx context.Context, number string) (*domain.Client, error) {
	var doc clientDocument
	filter := bson.M{"whatsapp_number": number}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client by number: %w", err)
	}

	return a.toEntity(&doc), nil
}

// Delete deletes a client from MongoDB.
func (a *ClientAdapter) Delete(ctx context.Context, id string) error {
	filter := bson.M{"id": id}

	_, err := a.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return nil
}

// =============================================================================
// Query Operations
// =============================================================================

// FindAll retrieves clients with filters and pagination, newest first.
func (a *ClientAdapter) FindAll(ctx context.Context, query *out.ClientListQuery) ([]*domain.Client, int64, error) {
	filter := bson.M{}
	if query != nil {
		if query.Segment != "" {
			filter["segment"] = query.Segment
		}
		if query.ChurnRisk != "" {
			filter["churn_risk"] = query.ChurnRisk
		}
		if query.Search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": query.Search, "$options": "i"}},
				{"whatsapp_number": bson.M{"$regex": query.Search}},
			}
		}
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if query != nil {
		if query.Limit > 0 {
			findOpts.SetLimit(int64(query.Limit))
		}
		if query.Offset > 0 {
			findOpts.SetSkip(int64(query.Offset))
		}
	}

	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer cursor.Close(ctx)

	var clients []*domain.Client
	for cursor.Next(ctx) {
		var doc clientDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode client: %w", err)
		}
		clients = append(clients, a.toEntity(&doc))
	}

	return clients, total, nil
}

// CountBySegment returns the client count per segment.
func (a *ClientAdapter) CountBySegment(ctx context.Context) (map[domain.ClientSegment]int64, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$segment",
				"count": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients by segment: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[domain.ClientSegment]int64)
	for cursor.Next(ctx) {
		var result struct {
			Segment string `bson:"_id"`
			Count   int64  `bson:"count"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode segment count: %w", err)
		}
		counts[domain.ClientSegment(result.Segment)] = result.Count
	}

	return counts, nil
}

// CountByChurnRisk returns the client count per churn risk tier.
func (a *ClientAdapter) CountByChurnRisk(ctx context.Context) (map[domain.ChurnRisk]int64, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$churn_risk",
				"count": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients by churn risk: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[domain.ChurnRisk]int64)
	for cursor.Next(ctx) {
		var result struct {
			Risk  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode churn risk count: %w", err)
		}
		counts[domain.ChurnRisk(result.Risk)] = result.Count
	}

	return counts, nil
}

// AverageEngagement returns the mean engagement score over all clients.
// An empty collection yields 0.
func (a *ClientAdapter) AverageEngagement(ctx context.Context) (float64, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id": nil,
				"avg": bson.M{"$avg": "$engagement_score"},
			},
		},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to average engagement: %w", err)
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		var result struct {
			Avg float64 `bson:"avg"`
		}
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode engagement average: %w", err)
		}
		return result.Avg, nil
	}

	return 0, nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *ClientAdapter) toDocument(client *domain.Client) *clientDocument {
	return &clientDocument{
		ID:              client.ID,
		WhatsappNumber:  client.WhatsappNumber,
		Name:            client.Name,
		Email:           client.Email,
		Age:             client.Age,
		City:            client.City,
		Profession:      client.Profession,
		Income:          client.Income,
		Segment:         string(client.Segment),
		EngagementScore: client.EngagementScore,
		ChurnRisk:       string(client.ChurnRisk),
		CreatedAt:       client.CreatedAt,
		UpdatedAt:       client.UpdatedAt,
	}
}

func (a *ClientAdapter) toEntity(doc *clientDocument) *domain.Client {
	return &domain.Client{
		ID:              doc.ID,
		WhatsappNumber:  doc.WhatsappNumber,
		Name:            doc.Name,
		Email:           doc.Email,
		Age:             doc.Age,
		City:            doc.City,
		Profession:      doc.Profession,
		Income:          doc.Income,
		Segment:         domain.ClientSegment(doc.Segment),
		EngagementScore: doc.EngagementScore,
		ChurnRisk:       domain.ChurnRisk(doc.ChurnRisk),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.ClientRepository = (*ClientAdapter)(nil)
