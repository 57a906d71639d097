package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The plan lives in a single well-known document.
const soupPlanKey = "current"

type mongoSoupPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoSoupPlanRepository(db *mongo.Database) SoupPlanRepository {
	return &mongoSoupPlanRepository{collection: db.Collection("soup_plan")}
}

type soupPlanDoc struct {
	Key       string           `bson:"_id"`
	Days      []domain.SoupDay `bson:"days"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func (m *mongoSoupPlanRepository) Get(ctx context.Context) (*domain.SoupPlan, error) {
	var doc soupPlanDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": soupPlanKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSoupPlanNotFound
		}
		return nil, fmt.Errorf("failed to get soup plan: %w", err)
	}
	return &domain.SoupPlan{Days: doc.Days, UpdatedAt: doc.UpdatedAt}, nil
}

func (m *mongoSoupPlanRepository) Replace(ctx context.Context, plan *domain.SoupPlan) error {
	plan.UpdatedAt = time.Now()
	doc := soupPlanDoc{Key: soupPlanKey, Days: plan.Days, UpdatedAt: plan.UpdatedAt}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": soupPlanKey}, doc, opts); err != nil {
		return fmt.Errorf("failed to save soup plan: %w", err)
	}
	return nil
}
