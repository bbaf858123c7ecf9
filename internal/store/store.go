// Package store provides a thin bbolt wrapper for jstat's local document cache.
//
// The store keeps the raw bytes of every document jstat has fetched, keyed by
// the source it was fetched from. Entries never expire on their own: pass
// --refresh to re-fetch one, or clear the cache explicitly.
//
// Buckets:
//
//	documents: raw document bytes keyed by source, with fetch metadata
//	_meta:     internal, schema version, created_at
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketDocuments = []byte("documents")
	bucketInternal  = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"documents"}

// Store wraps a bbolt database.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

func openDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.path
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// SchemaVersion returns the schema version recorded in the database.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		v = string(tx.Bucket(bucketInternal).Get([]byte("schema_version")))
		return nil
	})
	return v, err
}

// ─── Documents ────────────────────────────────────────────────────────────────

// Document is one cached document. Body holds the bytes exactly as fetched;
// Class is the class the document declared, empty if it could not be read.
type Document struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Class     string    `json:"class,omitempty"`
	Body      []byte    `json:"body"`
}

// Size returns the length of the cached body in bytes.
func (d Document) Size() int { return len(d.Body) }

// PutDocument stores doc under its source, stamping FetchedAt.
// An existing entry for the same source is overwritten.
func (s *Store) PutDocument(doc Document) error {
	if doc.Source == "" {
		return fmt.Errorf("storing document: empty source")
	}
	doc.FetchedAt = time.Now().UTC()
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).Put([]byte(doc.Source), b)
	})
}

// GetDocument retrieves the document cached for source.
// Returns (doc, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetDocument(source string) (Document, bool, error) {
	var doc Document
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDocuments).Get([]byte(source))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return Document{}, false, fmt.Errorf("reading document %s: %w", source, err)
	}
	return doc, doc.Source != "", nil
}

// ListDocuments returns every cached document sorted by source. Bodies are
// omitted unless withBody is set.
func (s *Store) ListDocuments(withBody bool) ([]Document, error) {
	var docs []Document
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var d Document
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			if !withBody {
				d.Body = nil
			}
			docs = append(docs, d)
			return nil
		})
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	return docs, err
}

// DeleteDocument removes the entry for source. Deleting a missing source is
// not an error; found reports whether anything was removed.
func (s *Store) DeleteDocument(source string) (found bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		found = b.Get([]byte(source)) != nil
		return b.Delete([]byte(source))
	})
	return found, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			if err := b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			}); err != nil {
				return err
			}
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	if !isUserBucket(name) {
		return fmt.Errorf("unknown bucket %q (valid: %v)", name, AllBuckets)
	}
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

func isUserBucket(name string) bool {
	for _, b := range AllBuckets {
		if b == name {
			return true
		}
	}
	return false
}

// CompactResult reports the file size before and after compaction.
type CompactResult struct {
	Before int64
	After  int64
}

// Compact rewrites the database into a fresh file, reclaiming the pages left
// free by deleted and overwritten documents, then reopens it in place.
func (s *Store) Compact() (CompactResult, error) {
	var res CompactResult
	before, err := os.Stat(s.path)
	if err != nil {
		return res, fmt.Errorf("stat db: %w", err)
	}
	res.Before = before.Size()

	tmp := s.path + ".compact"
	_ = os.Remove(tmp)
	dst, err := openDB(tmp)
	if err != nil {
		return res, err
	}
	if err := bolt.Compact(dst, s.db, 64<<20); err != nil {
		dst.Close()
		os.Remove(tmp)
		return res, fmt.Errorf("compacting: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return res, fmt.Errorf("closing compacted db: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return res, fmt.Errorf("closing db: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if db, oerr := openDB(s.path); oerr == nil {
			s.db = db
		}
		return res, fmt.Errorf("replacing db: %w", err)
	}
	db, err := openDB(s.path)
	if err != nil {
		return res, err
	}
	s.db = db

	after, err := os.Stat(s.path)
	if err != nil {
		return res, fmt.Errorf("stat db: %w", err)
	}
	res.After = after.Size()
	return res, nil
}
