package connection

import (
	"context"
	"errors"
	"time"

	"ticketflo-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when an organization has no HubSpot connection
var ErrNotFound = errors.New("no hubspot connection found")

type ConnectionRepository interface {
	GetByOrganization(ctx context.Context, organizationID string) (*Connection, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	ListAutoSync(ctx context.Context) ([]Connection, error)
}

type ConnectionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewConnectionRepository(db *database.MongodbDB) ConnectionRepository {
	return &ConnectionRepositoryImpl{
		collection: db.DB.Collection("hubspot_connections"),
	}
}

func (r *ConnectionRepositoryImpl) GetByOrganization(ctx context.Context, organizationID string) (*Connection, error) {
	var conn Connection
	err := r.collection.FindOne(ctx, bson.M{"organization_id": organizationID}).Decode(&conn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &conn, nil
}

func (r *ConnectionRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	return err
}

func (r *ConnectionRepositoryImpl) ListAutoSync(ctx context.Context) ([]Connection, error) {
	filter := bson.M{
		"sync_settings.auto_sync": true,
		"connection_status":       StatusConnected,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var connections []Connection
	if err = cursor.All(ctx, &connections); err != nil {
		return nil, err
	}

	return connections, nil
}
