package boltdb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
)

var (
	bucketSkills     = []byte("skills")
	bucketAgents     = []byte("agents")
	bucketExtensions = []byte("extensions")
)

// keySep joins extension and component ids. Neither may contain a NUL byte.
const keySep = "\x00"

// DB wraps a BoltDB instance and manages its lifecycle.
type DB struct {
	db *bolt.DB
}

func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSkills, bucketAgents, bucketExtensions} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying BoltDB instance.
func (d *DB) Close() error {
	return d.db.Close()
}

// Bolt returns the underlying BoltDB instance.
func (d *DB) Bolt() *bolt.DB {
	return d.db
}

// orgBucket returns the per-org sub-bucket of root, creating it when create is set.
// It returns nil when the bucket does not exist and create is false.
func orgBucket(tx *bolt.Tx, root []byte, org string, create bool) (*bolt.Bucket, error) {
	parent := tx.Bucket(root)
	if create {
		return parent.CreateBucketIfNotExists([]byte(org))
	}
	return parent.Bucket([]byte(org)), nil
}

func componentKey(extensionID, componentID string) []byte {
	return []byte(extensionID + keySep + componentID)
}

// deletePrefix removes every key of b that starts with prefix.
func deletePrefix(b *bolt.Bucket, prefix []byte) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
