package mongo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/app/models"
	"blog/app/repositories"
)

// storageConnect connects to the Mongo instance at MONGO_HOST:MONGO_PORT and
// drops the test collections afterwards. Skipped when MONGO_HOST is unset.
func storageConnect(t *testing.T) *Storage {
	t.Helper()
	host := os.Getenv("MONGO_HOST")
	if host == "" {
		t.Skip("MONGO_HOST not set")
	}
	port := os.Getenv("MONGO_PORT")
	if port == "" {
		port = "27017"
	}
	conf := &Config{Host: host, Port: port, DBName: "blog_test", User: os.Getenv("MONGO_USER"), Pass: os.Getenv("MONGO_PASS")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := New(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, db.Ping(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.client.Database(db.dbName).Drop(ctx); err != nil {
			t.Logf("WARNING: unable to restore DB state after the test: %v", err)
		}
		db.Close(ctx)
	})
	return db
}

func TestConfig(t *testing.T) {
	anon := Config{Host: "localhost", Port: "27017", DBName: "blog"}
	assert.Equal(t, "mongodb://localhost:27017/", anon.conString())
	assert.True(t, anon.IsValid())

	auth := Config{Host: "db", Port: "27018", DBName: "blog", User: "root", Pass: "hunter2"}
	assert.Equal(t, "mongodb://root:hunter2@db:27018/", auth.conString())
	assert.False(t, strings.Contains(auth.String(), "hunter2"))

	assert.False(t, (&Config{Host: "db"}).IsValid())
}

func TestStorage_Comments(t *testing.T) {
	db := storageConnect(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 12, 10, 22, 13, 0, time.UTC)

	add := func(postID int, name string, created time.Time) *models.Comment {
		c := &models.Comment{PostID: postID, Name: name, Email: name + "@example.com", Body: "text", Created: created}
		c.BeforeCreate()
		require.NoError(t, db.Create(ctx, c))
		return c
	}

	late := add(1, "late", base.Add(time.Hour))
	early := add(1, "early", base)
	add(2, "other", base)
	assert.NotEqual(t, late.ID, early.ID)

	list, err := db.ListByPost(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].Name)
	assert.Equal(t, "late", list[1].Name)

	late.Active = false
	require.NoError(t, db.Update(ctx, late))
	list, err = db.ListByPost(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := db.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(base))

	require.NoError(t, db.DeleteByPost(ctx, 1))
	_, err = db.GetByID(ctx, early.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, db.Delete(ctx, early.ID), repositories.ErrNotFound)
}
