package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/beefriend/beefriend-api/internal/models"
)

// maxUpdateAttempts bounds the compare-and-swap retries of UpdateUser.
const maxUpdateAttempts = 5

// MongoStore keeps one document per user in a MongoDB collection. Updates
// are compare-and-swap on the version field, so no replica set is needed.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	ms := &MongoStore{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}
	if err := ms.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return ms, nil
}

func (ms *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := ms.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "goals.goalName", Value: 1}}},
		{Keys: bson.D{{Key: "lineUserId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create MongoDB indexes: %v", err)
	}
	return nil
}

func (ms *MongoStore) Close() error {
	return ms.client.Disconnect(context.Background())
}

func (ms *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	stored := user.Clone()
	stored.Email = normalizeEmail(user.Email)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Version = 0
	prepare(stored, stored.CreatedAt)

	if _, err := ms.users.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflict
		}
		return models.DataSourceError("failed to create user", err)
	}

	*user = *stored
	return nil
}

func (ms *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return ms.findOne(ctx, bson.M{"_id": id})
}

func (ms *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return ms.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (ms *MongoStore) GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	if lineUserID == "" {
		return nil, models.ErrNotFound
	}
	return ms.findOne(ctx, bson.M{"lineUserId": lineUserID})
}

func (ms *MongoStore) UpdateUser(ctx context.Context, id string, fn MutateFunc) (*models.User, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := ms.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		next.ID = current.ID
		next.Email = current.Email
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version
		prepare(next, time.Now())

		res, err := ms.users.ReplaceOne(ctx, bson.M{"_id": id, "version": current.Version}, next)
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrLineIDTaken
		}
		if err != nil {
			return nil, models.DataSourceError("failed to update user", err)
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
		// lost the race against another writer; reload and retry
	}

	return nil, fmt.Errorf("update user %s: %w: too many concurrent writes", id, models.ErrConflict)
}

func (ms *MongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := ms.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.DataSourceError("failed to delete user", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (ms *MongoStore) ListUsers(ctx context.Context, excludeID string) ([]*models.User, error) {
	return ms.find(ctx, bson.M{"_id": bson.M{"$ne": excludeID}})
}

func (ms *MongoStore) FindUsersByGoalNames(ctx context.Context, excludeID string, names []string) ([]*models.User, error) {
	if len(names) == 0 {
		return []*models.User{}, nil
	}
	return ms.find(ctx, bson.M{
		"_id":            bson.M{"$ne": excludeID},
		"goals.goalName": bson.M{"$in": dedupe(names)},
	})
}

func (ms *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := ms.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.DataSourceError("failed to get user", err)
	}
	return &user, nil
}

func (ms *MongoStore) find(ctx context.Context, filter bson.M) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := ms.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.DataSourceError("failed to query users", err)
	}
	defer cursor.Close(ctx)

	var docs []models.User
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.DataSourceError("failed to decode users", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, &docs[i])
	}
	return users, nil
}
