package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerTagRepository implements TagRepository using BadgerDB. A secondary
// tagslug: key maps each slug to its tag ID.
type BadgerTagRepository struct {
	db *badger.DB
}

// NewBadgerTagRepository creates a new BadgerTagRepository
func NewBadgerTagRepository(db *badger.DB) *BadgerTagRepository {
	return &BadgerTagRepository{db: db}
}

func (r *BadgerTagRepository) GetByID(ctx context.Context, id int) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, tagKey(id), &tag)
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *BadgerTagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag *models.Tag
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		tag, err = tagBySlug(txn, slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// Ensure returns the tag whose slug matches name's slug, creating it when missing.
func (r *BadgerTagRepository) Ensure(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	slug := models.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("tag %q has no usable slug", name)
	}

	var tag *models.Tag
	err := update(r.db, func(txn *badger.Txn) error {
		existing, err := tagBySlug(txn, slug)
		if err == nil {
			tag = existing
			return nil
		}
		if err != ErrNotFound {
			return err
		}

		id, err := getNextID(txn, TagSeqKey)
		if err != nil {
			return err
		}
		tag = &models.Tag{ID: id, Slug: slug, Name: name}
		data, err := marshalEntity(tag)
		if err != nil {
			return err
		}
		if err := txn.Set(tagKey(id), data); err != nil {
			return err
		}
		return txn.Set(tagSlugKey(slug), []byte(strconv.Itoa(id)))
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// List returns every tag ordered by name.
func (r *BadgerTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	tags := []*models.Tag{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(TagKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var tag models.Tag
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &tag)
			})
			if err != nil {
				return err
			}
			tags = append(tags, &tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func tagBySlug(txn *badger.Txn, slug string) (*models.Tag, error) {
	item, err := txn.Get(tagSlugKey(slug))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var id int
	err = item.Value(func(val []byte) error {
		id, err = strconv.Atoi(string(val))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("corrupt slug index for %q: %w", slug, err)
	}

	var tag models.Tag
	if err := getEntity(txn, tagKey(id), &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}
