// Package mongostore implements the task and user stores on MongoDB.
package mongostore

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

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

const (
	TasksCollection = "tasks"
	UsersCollection = "users"
)

type taskDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"userId"`
	Title        string             `bson:"title"`
	Description  *string            `bson:"description,omitempty"`
	DueDate      *time.Time         `bson:"dueDate,omitempty"`
	Priority     string             `bson:"priority"`
	PriorityRank int                `bson:"priorityRank"`
	Status       string             `bson:"status"`
	Category     string             `bson:"category"`
	Tags         []string           `bson:"tags"`
	IsCompleted  bool               `bson:"isCompleted"`
	CompletedAt  *time.Time         `bson:"completedAt,omitempty"`
	ReminderSent bool               `bson:"reminderSent"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newTaskDocument(t *entities.Task) taskDocument {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskDocument{
		UserID:       t.OwnerID,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate,
		Priority:     string(t.Priority),
		PriorityRank: t.Priority.Rank(),
		Status:       string(t.Status),
		Category:     t.Category,
		Tags:         tags,
		IsCompleted:  t.IsCompleted,
		CompletedAt:  t.CompletedAt,
		ReminderSent: t.ReminderSent,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (d taskDocument) entity() *entities.Task {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &entities.Task{
		ID:           d.ID.Hex(),
		OwnerID:      d.UserID,
		Title:        d.Title,
		Description:  d.Description,
		DueDate:      d.DueDate,
		Priority:     entities.Priority(d.Priority),
		Status:       entities.TaskStatus(d.Status),
		Category:     d.Category,
		Tags:         tags,
		IsCompleted:  d.IsCompleted,
		CompletedAt:  d.CompletedAt,
		ReminderSent: d.ReminderSent,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// TaskStore implements ports.TaskStore on a MongoDB collection
type TaskStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewTaskStore creates a task store backed by the tasks collection of db
func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{coll: db.Collection(TasksCollection), now: time.Now}
}

func (s *TaskStore) Find(ctx context.Context, filter ports.TaskFilter, keys []ports.SortKey, skip, limit int) ([]*entities.Task, error) {
	query, err := taskQuery(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if sort := sortDocument(keys); len(sort) > 0 {
		opts.SetSort(sort)
	}
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, entities.NewStoreError("list tasks", err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, entities.NewStoreError("decode tasks", err)
	}

	tasks := make([]*entities.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.entity())
	}
	return tasks, nil
}

func (s *TaskStore) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	query, err := taskQuery(filter)
	if err != nil {
		return 0, err
	}

	n, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, entities.NewStoreError("count tasks", err)
	}
	return n, nil
}

func (s *TaskStore) CountBy(ctx context.Context, field ports.GroupField, filter ports.TaskFilter) (map[string]int64, error) {
	query, err := taskQuery(filter)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(field)},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, entities.NewStoreError("group tasks", err)
	}

	var groups []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, entities.NewStoreError("decode groups", err)
	}

	counts := make(map[string]int64, len(groups))
	for _, g := range groups {
		counts[g.Key] = g.Count
	}
	return counts, nil
}

func (s *TaskStore) FindOne(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entities.ErrTaskNotFound
	}

	var doc taskDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "userId": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("get task", err)
	}
	return doc.entity(), nil
}

func (s *TaskStore) Insert(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	if task.OwnerID == "" {
		return nil, entities.NewStoreError("insert task", entities.ErrMissingOwner)
	}

	doc := newTaskDocument(task)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = s.now()
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, entities.NewStoreError("insert task", err)
	}
	return doc.entity(), nil
}

func (s *TaskStore) Update(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	oid, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return nil, entities.ErrTaskNotFound
	}

	doc := newTaskDocument(task)
	doc.ID = oid
	set := bson.M{
		"title":        doc.Title,
		"description":  doc.Description,
		"dueDate":      doc.DueDate,
		"priority":     doc.Priority,
		"priorityRank": doc.PriorityRank,
		"status":       doc.Status,
		"category":     doc.Category,
		"tags":         doc.Tags,
		"isCompleted":  doc.IsCompleted,
		"completedAt":  doc.CompletedAt,
		"reminderSent": doc.ReminderSent,
		"updatedAt":    doc.UpdatedAt,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated taskDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "userId": task.OwnerID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("update task", err)
	}
	return updated.entity(), nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, entities.ErrTaskNotFound
	}

	var doc taskDocument
	err = s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "userId": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("delete task", err)
	}
	return doc.entity(), nil
}

// taskQuery translates f into a MongoDB filter document. The owner
// condition is always present.
func taskQuery(f ports.TaskFilter) (bson.M, error) {
	if f.OwnerID == "" {
		return nil, entities.NewStoreError("query tasks", entities.ErrMissingOwner)
	}

	query := bson.M{"userId": f.OwnerID}

	status := bson.M{}
	if f.Status != nil {
		status["$eq"] = string(*f.Status)
	}
	if f.ExcludeStatus != nil {
		status["$ne"] = string(*f.ExcludeStatus)
	}
	if len(status) > 0 {
		query["status"] = status
	}

	if f.Priority != nil {
		query["priority"] = string(*f.Priority)
	}
	if f.Category != nil && *f.Category != "" {
		query["category"] = primitive.Regex{Pattern: regexp.QuoteMeta(*f.Category), Options: "i"}
	}
	if f.IsCompleted != nil {
		query["isCompleted"] = *f.IsCompleted
	}

	due := bson.M{}
	if f.DueAfter != nil {
		due["$gte"] = *f.DueAfter
	}
	if f.DueBefore != nil {
		due["$lte"] = *f.DueBefore
	}
	if f.OverdueAt != nil {
		due["$lt"] = *f.OverdueAt
	}
	if len(due) > 0 {
		query["dueDate"] = due
	}

	if f.CompletedSince != nil {
		query["completedAt"] = bson.M{"$gte": *f.CompletedSince}
	}
	if len(f.Tags) > 0 {
		query["tags"] = bson.M{"$in": f.Tags}
	}

	return query, nil
}

// sortDocument renders keys as a sort specification. Missing fields sort
// lowest. A field is used once; later keys on the same field are dropped.
func sortDocument(keys []ports.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		field := sortField(k.Field)
		if seen[field] {
			continue
		}
		seen[field] = true

		dir := -1
		if k.Order == ports.SortAsc {
			dir = 1
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	return sort
}

func sortField(field ports.SortField) string {
	switch field {
	case ports.SortByPriority:
		return "priorityRank"
	case ports.SortByDueDate, ports.SortByTitle, ports.SortByCompletedAt:
		return string(field)
	default:
		return "createdAt"
	}
}

// EnsureIndexes creates the indexes both stores rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(TasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isCompleted", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "priorityRank", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "identityId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
