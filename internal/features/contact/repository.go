package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"ticketflo-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a contact id does not exist in the organization
var ErrNotFound = errors.New("contact not found")

type ContactRepository interface {
	List(ctx context.Context, organizationID string, ids []primitive.ObjectID) ([]Contact, error)
	Get(ctx context.Context, organizationID string, id primitive.ObjectID) (*Contact, error)
	// FindByEmail returns (nil, nil) when no contact matches; the lookup is
	// case-normalized and scoped to the organization.
	FindByEmail(ctx context.Context, organizationID, email string) (*Contact, error)
	Count(ctx context.Context, organizationID string) (int64, error)
	Create(ctx context.Context, c *Contact) error
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error
	SetHubSpotID(ctx context.Context, id primitive.ObjectID, hubspotContactID string) error
}

type ContactRepositoryImpl struct {
	collection *mongo.Collection
}

func NewContactRepository(db *database.MongodbDB) ContactRepository {
	return &ContactRepositoryImpl{
		collection: db.DB.Collection("contacts"),
	}
}

func (r *ContactRepositoryImpl) List(ctx context.Context, organizationID string, ids []primitive.ObjectID) ([]Contact, error) {
	filter := bson.M{"organization_id": organizationID}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contacts []Contact
	if err = cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *ContactRepositoryImpl) Get(ctx context.Context, organizationID string, id primitive.ObjectID) (*Contact, error) {
	var c Contact
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "organization_id": organizationID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *ContactRepositoryImpl) FindByEmail(ctx context.Context, organizationID, email string) (*Contact, error) {
	filter := bson.M{
		"organization_id": organizationID,
		"email":           strings.ToLower(email),
	}

	var c Contact
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &c, nil
}

func (r *ContactRepositoryImpl) Count(ctx context.Context, organizationID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"organization_id": organizationID})
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, c *Contact) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Email = strings.ToLower(c.Email)
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	if c.Tags == nil {
		c.Tags = []string{}
	}

	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *ContactRepositoryImpl) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
	)
	return err
}

func (r *ContactRepositoryImpl) SetHubSpotID(ctx context.Context, id primitive.ObjectID, hubspotContactID string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"hubspot_contact_id": hubspotContactID}},
	)
	return err
}
