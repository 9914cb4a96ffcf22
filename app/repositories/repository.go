package repositories

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicatePost = errors.New("more than one published post shares this publish date and slug")
)

// Repository owns an embedded Badger database and hands out the post, comment
// and tag repositories that share it.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	inMemory bool
}

// NewRepository opens the Badger database at path. An empty path opens an
// in-memory database that disappears on Close.
func NewRepository(path string) (*Repository, error) {
	inMemory := path == ""
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(log.WithField("component", "badger")).
		WithLoggingLevel(badger.WARNING).
		WithNumVersionsToKeep(1)
	if inMemory {
		opts = opts.WithSyncWrites(false).WithNumGoroutines(1)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return &Repository{
		db:       db,
		dbPath:   path,
		inMemory: inMemory,
	}, nil
}

// Path returns the on-disk location, empty for in-memory databases.
func (r *Repository) Path() string {
	return r.dbPath
}

// DB exposes the underlying Badger handle.
func (r *Repository) DB() *badger.DB {
	return r.db
}

// Posts returns the post repository backed by this database.
func (r *Repository) Posts() *BadgerPostRepository {
	return NewBadgerPostRepository(r.db)
}

// Comments returns the comment repository backed by this database.
func (r *Repository) Comments() *BadgerCommentRepository {
	return NewBadgerCommentRepository(r.db)
}

// Tags returns the tag repository backed by this database.
func (r *Repository) Tags() *BadgerTagRepository {
	return NewBadgerTagRepository(r.db)
}

// Backup streams a full backup of the database to w and returns the version
// the backup was taken at.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.db.Backup(w, 0)
}

// Load restores a backup produced by Backup.
func (r *Repository) Load(rd io.Reader) (err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic occurred during restore: %v", p)
		}
	}()
	return r.db.Load(rd, 4)
}

// Clear drops every key.
func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.db.Close(); err != nil {
		return err
	}
	if r.inMemory {
		log.Debug("[repository] in-memory database closed")
	}
	return nil
}

var (
	_ PostRepository    = (*BadgerPostRepository)(nil)
	_ CommentRepository = (*BadgerCommentRepository)(nil)
	_ TagRepository     = (*BadgerTagRepository)(nil)
)
