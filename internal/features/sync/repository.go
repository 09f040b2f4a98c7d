package sync

import (
	"context"
	"time"

	"ticketflo-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyncLogRepository interface {
	Create(ctx context.Context, log *SyncLog) error
	Update(ctx context.Context, log *SyncLog) error
	List(ctx context.Context, connectionID primitive.ObjectID, limit int64) ([]SyncLog, error)
}

type SyncLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSyncLogRepository(db *database.MongodbDB) SyncLogRepository {
	return &SyncLogRepositoryImpl{
		collection: db.DB.Collection("hubspot_sync_logs"),
	}
}

func (r *SyncLogRepositoryImpl) Create(ctx context.Context, log *SyncLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	if log.Status == "" {
		log.Status = LogStatusInProgress
	}

	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *SyncLogRepositoryImpl) Update(ctx context.Context, log *SyncLog) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": log.ID}, log)
	return err
}

func (r *SyncLogRepositoryImpl) List(ctx context.Context, connectionID primitive.ObjectID, limit int64) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"connection_id": connectionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []SyncLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
