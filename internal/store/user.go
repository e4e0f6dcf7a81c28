package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"attendance-tracker/internal/model"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(ctx context.Context, db *MongoDB) (*UserStore, error) {
	users := db.Collection("users")

	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "department", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create users indexes: %w", err)
	}

	return &UserStore{coll: users}, nil
}

// Create inserts a new user and sets the ID on the struct. A taken email
// yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		return mapWriteError(err)
	}
	user.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

// GetByID returns the user, or nil if not found.
func (s *UserStore) GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail returns the user with the given email, or nil if not found.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// GetByIDs returns the users with the given ids. Unknown ids are skipped.
func (s *UserStore) GetByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListByDepartment returns all users whose department equals dept.
func (s *UserStore) ListByDepartment(ctx context.Context, dept string) ([]*model.User, error) {
	return s.find(ctx, bson.M{"department": dept})
}

// ListByRole returns all users with the given role.
func (s *UserStore) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return s.find(ctx, bson.M{"role": role})
}

// List returns every user ordered by name.
func (s *UserStore) List(ctx context.Context) ([]*model.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *UserStore) find(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]*model.User, error) {
	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var results []*model.User
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return results, nil
}
