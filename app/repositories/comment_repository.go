package repositories

import (
	"context"
	"sort"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}

		// Save comment with post ID in key for efficient listing
		return txn.Set(commentKey(comment.PostID, comment.ID), data)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var found *models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		comment, _, err := findComment(txn, id)
		found = comment
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListByPost retrieves the comments of a post in creation order.
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPostPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return err
			}
			if activeOnly && !comment.Active {
				continue
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortComments(comments)
	return comments, nil
}

// Update updates an existing comment
func (r *BadgerCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		_, key, err := findComment(txn, comment.ID)
		if err != nil {
			return err
		}

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		_, key, err := findComment(txn, id)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// DeleteByPost removes every comment of a post.
func (r *BadgerCommentRepository) DeleteByPost(ctx context.Context, postID int) error {
	return update(r.db, func(txn *badger.Txn) error {
		var keys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		prefix := commentPostPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// findComment scans all comments for id. The iterator is closed before the
// caller uses the returned key for writes.
func findComment(txn *badger.Txn, id int) (*models.Comment, []byte, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(CommentKeyPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var comment models.Comment
		err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		})
		if err != nil {
			return nil, nil, err
		}
		if comment.ID == id {
			return &comment, item.KeyCopy(nil), nil
		}
	}
	return nil, nil, ErrNotFound
}

func sortComments(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.ID < b.ID
	})
}
