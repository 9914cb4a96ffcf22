// Package mongo stores blog comments in MongoDB. Comment IDs stay integers,
// allocated from a counters collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog/app/models"
	"blog/app/repositories"
)

const (
	commentsCollection = "comments"
	countersCollection = "counters"
	commentSeq         = "comment"
)

var (
	ErrConnectDB       = fmt.Errorf("unable to establish DB connection")
	ErrDBNotResponding = fmt.Errorf("DB not responding")
)

// Storage implements repositories.CommentRepository.
type Storage struct {
	client *mongo.Client
	dbName string
}

func New(ctx context.Context, conf *Config) (*Storage, error) {
	client, err := mongo.Connect(ctx, conf.Options())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectDB, err)
	}

	s := Storage{client: client, dbName: conf.DBName}
	if err := s.createCollection(ctx, commentsCollection); err != nil {
		return nil, err
	}
	_, err = s.comments().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created", Value: 1}},
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrDBNotResponding, err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) comments() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(commentsCollection)
}

// nextID atomically increments the named counter and returns its new value.
func (s *Storage) nextID(ctx context.Context, name string) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.client.Database(s.dbName).Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (s *Storage) Create(ctx context.Context, comment *models.Comment) error {
	if comment.PostID == 0 {
		return fmt.Errorf("comment has no post")
	}
	id, err := s.nextID(ctx, commentSeq)
	if err != nil {
		return err
	}
	comment.ID = id

	_, err = s.comments().InsertOne(ctx, comment)
	return err
}

func (s *Storage) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var c models.Comment
	err := s.comments().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Created = c.Created.UTC()
	c.Updated = c.Updated.UTC()
	return &c, nil
}

// ListByPost returns the comments of postID sorted by creation time ascending.
func (s *Storage) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	filter := bson.M{"post_id": postID}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.comments().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var found []models.Comment
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}

	comments := make([]*models.Comment, 0, len(found))
	for i := range found {
		found[i].Created = found[i].Created.UTC()
		found[i].Updated = found[i].Updated.UTC()
		comments = append(comments, &found[i])
	}
	return comments, nil
}

func (s *Storage) Update(ctx context.Context, comment *models.Comment) error {
	res, err := s.comments().ReplaceOne(ctx, bson.M{"_id": comment.ID}, comment)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int) error {
	res, err := s.comments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteByPost(ctx context.Context, postID int) error {
	_, err := s.comments().DeleteMany(ctx, bson.M{"post_id": postID})
	return err
}

// createCollection creates a collection with the given name in the database if it doesn't already exist.
func (s *Storage) createCollection(ctx context.Context, collName string) error {
	collExists, err := collectionExists(ctx, s.client.Database(s.dbName), collName)
	if err != nil {
		return err
	}

	if !collExists {
		err := s.client.Database(s.dbName).CreateCollection(ctx, collName)
		if err != nil {
			return err
		}
	}

	return nil
}

// collectionExists checks if a collection with the given name exists in the database.
func collectionExists(ctx context.Context, db *mongo.Database, collName string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return false, fmt.Errorf("failed to list collection names: %w", err)
	}

	for _, name := range names {
		if name == collName {
			return true, nil
		}
	}
	return false, nil
}

var _ repositories.CommentRepository = (*Storage)(nil)
