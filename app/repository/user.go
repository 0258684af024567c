package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tubeworks/ms-go-accounts/app/entity"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique username/email indexes. Called once at
// startup; creation is a no-op when the indexes already exist.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// FindByUsernameOrEmail matches either identifier. Callers pass
// case-normalized values. Returns nil, nil when no user matches.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"username": username},
		{"email": email},
	}}

	user := &entity.User{}
	err := r.collection.FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*entity.User, error) {
	user := &entity.User{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetRefreshToken overwrites the stored refresh token. Only the token and
// updatedAt fields change, the rest of the document is untouched.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    time.Now(),
	}}
	_, err := r.collection.UpdateByID(ctx, id, update)
	return err
}

// RotateRefreshToken swaps oldToken for newToken in a single conditional
// update. Returns false when the stored value no longer equals oldToken,
// which makes a lost rotation race surface as an invalid token.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) (bool, error) {
	filter := bson.M{"_id": id, "refreshToken": oldToken}
	update := bson.M{"$set": bson.M{
		"refreshToken": newToken,
		"updatedAt":    time.Now(),
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ClearRefreshToken unsets the stored refresh token. Safe to call when the
// field is already absent.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateByID(ctx, id, update)
	return err
}

// IsDuplicateKey reports whether err is a unique-index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
