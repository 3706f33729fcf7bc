package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	User        primitive.ObjectID `bson:"user"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Owner       []userDocument     `bson:"owner,omitempty"` // результат $lookup
}

type userDocument struct {
	Name     string `bson:"name"`
	Username string `bson:"username"`
}

func (d taskDocument) toModel() model.Task {
	t := model.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Owner:       d.User.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Owner) > 0 {
		t.User = &model.UserRef{Name: d.Owner[0].Name, Username: d.Owner[0].Username}
	}
	return t
}

// MongoTaskRepo хранит задачи в MongoDB, идентификаторы - ObjectID в hex
type MongoTaskRepo struct {
	client *mongo.Client
	tasks  *mongo.Collection
}

var _ TaskRepository = (*MongoTaskRepo)(nil)

func NewMongoTaskRepo(client *mongo.Client, database string) *MongoTaskRepo {
	return &MongoTaskRepo{
		client: client,
		tasks:  client.Database(database).Collection(tasksCollection),
	}
}

// EnsureIndexes создает индекс под выборки по владельцу
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (r *MongoTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []model.Task{}, nil
	}
	return r.aggregate(ctx, bson.M{"user": owner})
}

func (r *MongoTaskRepo) SearchByOwnerAndTitle(ctx context.Context, ownerID, term string) ([]model.Task, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrorInvalidInput)
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []model.Task{}, nil
	}
	return r.aggregate(ctx, bson.M{
		"user":  owner,
		"title": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"},
	})
}

func (r *MongoTaskRepo) aggregate(ctx context.Context, match bson.M) ([]model.Task, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
	}

	cursor, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]model.Task, 0)
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, doc.toModel())
	}
	return tasks, cursor.Err()
}

func (r *MongoTaskRepo) InsertOne(ctx context.Context, t model.Task) (model.Task, error) {
	if err := validateNew(t); err != nil {
		return t, err
	}
	doc, err := newDocument(t)
	if err != nil {
		return t, err
	}

	if _, err := r.tasks.InsertOne(ctx, doc); err != nil {
		return t, fmt.Errorf("insert task: %w", err)
	}
	return doc.toModel(), nil
}

// InsertMany не атомарна между документами: при сбое сервера посреди пачки часть может остаться записанной
func (r *MongoTaskRepo) InsertMany(ctx context.Context, ownerID string, tasks []model.Task) (int, error) {
	stamped, err := stampOwner(ownerID, tasks)
	if err != nil {
		return 0, err
	}

	docs := make([]interface{}, 0, len(stamped))
	for _, t := range stamped {
		doc, err := newDocument(t)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}

	res, err := r.tasks.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert tasks: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *MongoTaskRepo) UpdateByID(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	set := bson.M{"updatedAt": now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	var doc taskDocument
	err := r.tasks.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Task{}, ErrorNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoTaskRepo) DeleteByID(ctx context.Context, ownerID, id string) (model.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	var doc taskDocument
	err := r.tasks.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Task{}, ErrorNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("delete task: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoTaskRepo) DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty list", ErrorInvalidInput)
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return 0, nil
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := r.tasks.DeleteMany(ctx, bson.M{"user": owner, "_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoTaskRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func newDocument(t model.Task) (taskDocument, error) {
	owner, err := primitive.ObjectIDFromHex(t.Owner)
	if err != nil {
		return taskDocument{}, fmt.Errorf("%w: owner must be an ObjectID", ErrorValidation)
	}
	ts := now()
	return taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		User:        owner,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

func ownedFilter(ownerID, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "user": owner}, true
}

// Mongo хранит время с точностью до миллисекунд
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
