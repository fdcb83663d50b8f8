package caseengine

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicwatch/case-api/databases"
	"github.com/civicwatch/case-api/models"
)

// MongoStore is a RecordStore persisting one document per case in the cases
// collection. Evidence, notes and hearings are embedded sub-documents, so a
// Put replaces the whole aggregate atomically.
type MongoStore struct {
	db databases.CaseDatabase
}

// NewMongoStore wraps the case database in the RecordStore interface.
func NewMongoStore(db databases.CaseDatabase) *MongoStore {
	return &MongoStore{db: db}
}

// Get fetches the case by id.
func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	c, err := s.db.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// Put upserts the full case document.
func (s *MongoStore) Put(ctx context.Context, c *models.Case) error {
	return s.db.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
}

// Delete removes the case document, failing when nothing matched.
func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.db.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

// List returns every case document.
func (s *MongoStore) List(ctx context.Context) ([]models.Case, error) {
	return s.db.Find(ctx, bson.M{})
}
