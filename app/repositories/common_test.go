package repositories

import (
	"testing"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetNextID(t *testing.T) {
	db := openTestDB(t)

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("different sequence keys", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			_, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)

			commentID, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, commentID, "Comment sequence should start from 1")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("persistence", func(t *testing.T) {
		err := update(db, func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)

		err = update(db, func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 2, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("corrupt sequence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			require.NoError(t, txn.Set([]byte("bad:seq"), []byte{1, 2}))
			_, err := getNextID(txn, "bad:seq")
			return err
		})
		assert.ErrorContains(t, err, "corrupt sequence")
	})
}

func TestMarshalEntity(t *testing.T) {
	t.Run("marshal post", func(t *testing.T) {
		post := &models.Post{
			ID:    1,
			Title: "Test Post",
			Body:  "Test Body",
			Tags:  []models.Tag{{ID: 3, Slug: "go", Name: "Go"}},
		}

		data, err := marshalEntity(post)
		assert.NoError(t, err)

		var unmarshaled models.Post
		assert.NoError(t, unmarshalEntity(data, &unmarshaled))
		assert.Equal(t, post.Title, unmarshaled.Title)
		assert.Equal(t, post.Tags, unmarshaled.Tags)
	})

	t.Run("marshal invalid entity", func(t *testing.T) {
		invalidEntity := struct {
			Ch chan int
		}{
			Ch: make(chan int),
		}

		_, err := marshalEntity(invalidEntity)
		assert.Error(t, err)
	})
}

func TestUnmarshalEntity(t *testing.T) {
	t.Run("unmarshal comment", func(t *testing.T) {
		data := []byte(`{"id":1,"post_id":2,"name":"Ann","body":"Nice","active":true}`)
		var comment models.Comment
		err := unmarshalEntity(data, &comment)
		assert.NoError(t, err)
		assert.Equal(t, 2, comment.PostID)
		assert.Equal(t, "Ann", comment.Name)
		assert.True(t, comment.Active)
	})

	t.Run("unmarshal invalid JSON", func(t *testing.T) {
		var post models.Post
		assert.Error(t, unmarshalEntity([]byte(`{"id":1,invalid json}`), &post))
	})

	t.Run("unmarshal into nil", func(t *testing.T) {
		assert.Error(t, unmarshalEntity([]byte(`{"id":1}`), nil))
	})
}

func TestGetEntityMissingKey(t *testing.T) {
	db := openTestDB(t)
	err := db.View(func(txn *badger.Txn) error {
		var post models.Post
		return getEntity(txn, postKey(99), &post)
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
