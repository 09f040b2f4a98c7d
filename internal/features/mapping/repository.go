package mapping

import (
	"context"
	"errors"
	"time"

	"ticketflo-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FieldMappingRepository interface {
	ListEnabled(ctx context.Context, connectionID primitive.ObjectID) ([]FieldMapping, error)
}

type ContactMappingRepository interface {
	// Upsert records the correlation keyed on (connection_id, contact_id) and
	// stamps the timestamp for the given direction. Repeated calls never
	// create duplicate rows.
	Upsert(ctx context.Context, connectionID, contactID primitive.ObjectID, hubspotContactID string, direction Direction) error
	Get(ctx context.Context, connectionID, contactID primitive.ObjectID) (*ContactMapping, error)
}

type FieldMappingRepositoryImpl struct {
	collection *mongo.Collection
}

func NewFieldMappingRepository(db *database.MongodbDB) FieldMappingRepository {
	return &FieldMappingRepositoryImpl{
		collection: db.DB.Collection("hubspot_field_mappings"),
	}
}

func (r *FieldMappingRepositoryImpl) ListEnabled(ctx context.Context, connectionID primitive.ObjectID) ([]FieldMapping, error) {
	filter := bson.M{
		"connection_id": connectionID,
		"is_enabled":    true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var mappings []FieldMapping
	if err = cursor.All(ctx, &mappings); err != nil {
		return nil, err
	}

	return mappings, nil
}

type ContactMappingRepositoryImpl struct {
	collection *mongo.Collection
}

func NewContactMappingRepository(db *database.MongodbDB) ContactMappingRepository {
	return &ContactMappingRepositoryImpl{
		collection: db.DB.Collection("hubspot_contact_mappings"),
	}
}

func (r *ContactMappingRepositoryImpl) Upsert(ctx context.Context, connectionID, contactID primitive.ObjectID, hubspotContactID string, direction Direction) error {
	now := time.Now()

	set := bson.M{"hubspot_contact_id": hubspotContactID}
	switch direction {
	case DirectionPush:
		set["last_pushed_at"] = now
	case DirectionPull:
		set["last_pulled_at"] = now
	default:
		return errors.New("contact mapping upsert requires push or pull direction")
	}

	filter := bson.M{
		"connection_id": connectionID,
		"contact_id":    contactID,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *ContactMappingRepositoryImpl) Get(ctx context.Context, connectionID, contactID primitive.ObjectID) (*ContactMapping, error) {
	filter := bson.M{
		"connection_id": connectionID,
		"contact_id":    contactID,
	}

	var m ContactMapping
	err := r.collection.FindOne(ctx, filter).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &m, nil
}
