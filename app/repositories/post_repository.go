package repositories

import (
	"context"

	"blog/app/models"
	"blog/app/ranking"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB. Filtering and
// ranking happen in process over the scanned posts.
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id
		return r.put(txn, post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List retrieves the posts matching filter, newest first.
func (r *BadgerPostRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	posts, err := r.scan(filter)
	if err != nil {
		return nil, err
	}
	ranking.SortByPublish(posts)
	return filter.Page(posts), nil
}

// Count returns how many posts match filter, ignoring paging.
func (r *BadgerPostRepository) Count(ctx context.Context, filter PostFilter) (int, error) {
	posts, err := r.scan(filter)
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

// Similar ranks the posts of filter that share a tag with post.
func (r *BadgerPostRepository) Similar(ctx context.Context, filter PostFilter, post *models.Post, limit int) ([]models.SimilarPost, error) {
	filter.TagIDs = post.TagIDs()
	filter.ExcludeID = post.ID
	candidates, err := r.scan(filter)
	if err != nil {
		return nil, err
	}
	return ranking.SimilarPosts(post, candidates, limit), nil
}

// Search ranks the posts of filter by title similarity to query.
func (r *BadgerPostRepository) Search(ctx context.Context, filter PostFilter, query string, threshold float64) ([]models.SearchResult, error) {
	candidates, err := r.scan(filter)
	if err != nil {
		return nil, err
	}
	return ranking.ByTitle(query, candidates, threshold), nil
}

// Update updates an existing post
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(postKey(post.ID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return r.put(txn, post)
	})
}

// Delete deletes a post by ID. Comments are removed by the caller.
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := postKey(id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// put stores the post without its loaded comments.
func (r *BadgerPostRepository) put(txn *badger.Txn, post *models.Post) error {
	stored := *post
	stored.Comments = nil
	data, err := marshalEntity(&stored)
	if err != nil {
		return err
	}
	return txn.Set(postKey(post.ID), data)
}

func (r *BadgerPostRepository) scan(filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			if filter.Match(&post) {
				posts = append(posts, &post)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
