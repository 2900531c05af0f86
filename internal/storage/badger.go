package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

const (
	promptKeyPrefix = "prompt:"
	lastSyncKey     = "meta:last_sync"
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger

	// writeMu serializes writes; reads go through badger's own
	// snapshot isolation and run concurrently with a pending write.
	writeMu sync.Mutex

	// cacheMu guards the derived views below. Any write invalidates
	// them before returning, so a read after a write never observes
	// stale derived data.
	cacheMu   sync.Mutex
	tagCache  []string
	sortCache []domain.Prompt
}

// NewBadgerRepository opens the database at the given path.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}

	repo := &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}
	repo.log.WithField("path", dbPath).Info("BadgerDB opened")
	return repo, nil
}

// Close closes the database.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

func promptKey(id string) []byte {
	return []byte(promptKeyPrefix + id)
}

// GetPromptsCount counts persisted prompts without loading values.
func (r *BadgerRepository) GetPromptsCount(ctx context.Context) (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(promptKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return count, nil
}

// GetPromptByID loads one prompt.
func (r *BadgerRepository) GetPromptByID(ctx context.Context, id string) (domain.Prompt, error) {
	var p domain.Prompt
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(promptKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Prompt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("failed to get prompt %s: %w", id, err)
	}
	return p, nil
}

// InsertPrompt stores a new prompt, failing on a duplicate id.
func (r *BadgerRepository) InsertPrompt(ctx context.Context, p domain.Prompt) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := time.Now()
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	if p.ModifiedAt == nil {
		p.ModifiedAt = &now
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		key := promptKey(p.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("prompt %s already exists", p.ID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return setPrompt(txn, p)
	})
	if err != nil {
		return &domain.RepositoryError{Op: "insert", Cause: err}
	}

	r.invalidateCaches()
	r.log.WithField("id", p.ID).Debug("Prompt inserted")
	return nil
}

// UpdatePrompt replaces an existing prompt and stamps its modification time.
func (r *BadgerRepository) UpdatePrompt(ctx context.Context, p domain.Prompt) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := time.Now()
	p.ModifiedAt = &now

	err := r.db.Update(func(txn *badger.Txn) error {
		key := promptKey(p.ID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return domain.ErrNotFound
		} else if err != nil {
			return err
		}
		return setPrompt(txn, p)
	})
	if err == domain.ErrNotFound {
		return domain.ErrNotFound
	}
	if err != nil {
		return &domain.RepositoryError{Op: "update", Cause: err}
	}

	r.invalidateCaches()
	r.log.WithField("id", p.ID).Debug("Prompt updated")
	return nil
}

// DeletePrompt removes one prompt; deleting an unknown id is a no-op.
func (r *BadgerRepository) DeletePrompt(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(promptKey(id))
	})
	if err != nil {
		return &domain.RepositoryError{Op: "delete", Cause: err}
	}

	r.invalidateCaches()
	return nil
}

// SavePrompts bulk-upserts a batch in one transaction; the batch is
// all-or-nothing from the caller's perspective.
func (r *BadgerRepository) SavePrompts(ctx context.Context, prompts []domain.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := time.Now()
	err := r.db.Update(func(txn *badger.Txn) error {
		for _, p := range prompts {
			if p.ID == "" {
				return fmt.Errorf("prompt without id in batch")
			}
			if p.CreatedAt == nil {
				p.CreatedAt = &now
			}
			if p.ModifiedAt == nil {
				p.ModifiedAt = &now
			}
			if err := setPrompt(txn, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "save_prompts", Cause: err}
	}

	r.invalidateCaches()
	r.log.WithField("count", len(prompts)).Debug("Prompt batch saved")
	return nil
}

// GetAllPrompts returns every prompt in stable listing order.
func (r *BadgerRepository) GetAllPrompts(ctx context.Context) ([]domain.Prompt, error) {
	all, err := r.sortedPrompts()
	if err != nil {
		return nil, err
	}
	// Hand out a copy so callers cannot corrupt the sort cache.
	return append([]domain.Prompt(nil), all...), nil
}

// ToggleFavoriteStatus flips the favorite flag and returns the new state.
func (r *BadgerRepository) ToggleFavoriteStatus(ctx context.Context, id string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var newState bool
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(promptKey(id))
		if err == badger.ErrKeyNotFound {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		var p domain.Prompt
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return err
		}

		p.IsFavorite = !p.IsFavorite
		now := time.Now()
		p.ModifiedAt = &now
		newState = p.IsFavorite
		return setPrompt(txn, p)
	})
	if err == domain.ErrNotFound {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, &domain.RepositoryError{Op: "toggle_favorite", Cause: err}
	}

	r.invalidateCaches()
	return newState, nil
}

// GetPrompts returns a filtered, paginated slice of the listing.
func (r *BadgerRepository) GetPrompts(ctx context.Context, q PromptQuery) ([]domain.Prompt, error) {
	all, err := r.sortedPrompts()
	if err != nil {
		return nil, err
	}

	var filtered []domain.Prompt
	for _, p := range all {
		if matches(p, q) {
			filtered = append(filtered, p)
		}
	}

	// Negative paging values come straight from callers like the CLI;
	// treat them as "from the start" and "no limit".
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Offset >= len(filtered) {
		return []domain.Prompt{}, nil
	}
	filtered = filtered[q.Offset:]
	if q.Limit > 0 && q.Limit < len(filtered) {
		filtered = filtered[:q.Limit]
	}
	return filtered, nil
}

// DeletePromptsByIDs removes a set of prompts in one transaction.
func (r *BadgerRepository) DeletePromptsByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := txn.Delete(promptKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "delete_by_ids", Cause: err}
	}

	r.invalidateCaches()
	r.log.WithField("count", len(ids)).Debug("Prompts deleted")
	return nil
}

// DeleteAllPrompts wipes the prompt keyspace. Sync state is untouched.
func (r *BadgerRepository) DeleteAllPrompts(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(promptKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "delete_all", Cause: err}
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "delete_all", Cause: err}
	}

	r.invalidateCaches()
	r.log.WithField("count", len(keys)).Info("All prompts deleted")
	return nil
}

// GetAllUniqueTags returns the cached, sorted unique tag list.
func (r *BadgerRepository) GetAllUniqueTags(ctx context.Context) ([]string, error) {
	r.cacheMu.Lock()
	if r.tagCache != nil {
		tags := append([]string(nil), r.tagCache...)
		r.cacheMu.Unlock()
		return tags, nil
	}
	r.cacheMu.Unlock()

	all, err := r.sortedPrompts()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var tags []string
	for _, p := range all {
		for _, tag := range p.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	if tags == nil {
		tags = []string{}
	}

	r.cacheMu.Lock()
	r.tagCache = tags
	r.cacheMu.Unlock()
	return append([]string(nil), tags...), nil
}

// InvalidateSortDataCache drops the derived views.
func (r *BadgerRepository) InvalidateSortDataCache() {
	r.invalidateCaches()
}

// LastSyncTime reads the persisted sync gate timestamp.
func (r *BadgerRepository) LastSyncTime(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastSyncKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return t.UnmarshalText(val)
		})
	})
	if err == badger.ErrKeyNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last sync time: %w", err)
	}
	return t, nil
}

// SetLastSyncTime persists the sync gate timestamp.
func (r *BadgerRepository) SetLastSyncTime(ctx context.Context, t time.Time) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	val, err := t.MarshalText()
	if err != nil {
		return &domain.RepositoryError{Op: "set_last_sync", Cause: err}
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lastSyncKey), val)
	})
	if err != nil {
		return &domain.RepositoryError{Op: "set_last_sync", Cause: err}
	}
	return nil
}

func setPrompt(txn *badger.Txn, p domain.Prompt) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt %s: %w", p.ID, err)
	}
	return txn.SetEntry(badger.NewEntry(promptKey(p.ID), data))
}

// sortedPrompts returns the cached full listing, loading and sorting it
// on a cache miss.
func (r *BadgerRepository) sortedPrompts() ([]domain.Prompt, error) {
	r.cacheMu.Lock()
	if r.sortCache != nil {
		cached := r.sortCache
		r.cacheMu.Unlock()
		return cached, nil
	}
	r.cacheMu.Unlock()

	var prompts []domain.Prompt
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(promptKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var p domain.Prompt
				if err := json.Unmarshal(val, &p); err != nil {
					return fmt.Errorf("failed to unmarshal prompt at key %s: %w", string(item.Key()), err)
				}
				prompts = append(prompts, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	// Listing order: modifiedAt descending, never-modified records
	// last, id as the deterministic tiebreaker.
	sort.Slice(prompts, func(i, j int) bool {
		mi, mj := prompts[i].ModifiedAt, prompts[j].ModifiedAt
		switch {
		case mi == nil && mj == nil:
			return prompts[i].ID < prompts[j].ID
		case mi == nil:
			return false
		case mj == nil:
			return true
		case !mi.Equal(*mj):
			return mi.After(*mj)
		}
		return prompts[i].ID < prompts[j].ID
	})
	if prompts == nil {
		prompts = []domain.Prompt{}
	}

	r.cacheMu.Lock()
	r.sortCache = prompts
	r.cacheMu.Unlock()
	return prompts, nil
}

func (r *BadgerRepository) invalidateCaches() {
	r.cacheMu.Lock()
	r.tagCache = nil
	r.sortCache = nil
	r.cacheMu.Unlock()
}

func matches(p domain.Prompt, q PromptQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if len(q.Tags) > 0 {
		// ANY-of semantics: one shared tag is enough.
		found := false
		for _, want := range q.Tags {
			for _, have := range p.Tags {
				if strings.EqualFold(want, have) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.logger.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.logger.Warningf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.logger.Infof(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.logger.Debugf(f, v...) }
