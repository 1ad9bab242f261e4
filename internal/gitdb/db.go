// Package gitdb is an append-only key/value log with an in-memory offset index.
//
// Every Put appends a record to <dir>/log and fsyncs it. The latest record for a
// key wins. Reads never touch the disk after Open, so a DB can be shared by any
// number of concurrent readers.
package gitdb

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by Get for keys that were never written.
var ErrKeyNotFound = errors.New("key not found")

type DB struct {
	mu      sync.RWMutex
	log     []byte
	index   *Index
	logPath string
}

// Open loads the log under path and rebuilds the index from it.
func Open(path string) (*DB, error) {
	logPath := filepath.Join(path, "log")
	db := &DB{
		log:     make([]byte, 0, 4096),
		index:   newIndex(),
		logPath: logPath,
	}

	if data, err := os.ReadFile(logPath); err == nil {
		db.log = data
		if err := db.rebuildIndex(); err != nil {
			return nil, errors.Wrap(err, "failed to rebuild index")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read log file")
	}

	return db, nil
}

func (db *DB) rebuildIndex() error {
	offset := int64(0)
	for offset < int64(len(db.log)) {
		record, size, err := DecodeRecord(db.log, offset)
		if err != nil {
			return err
		}
		db.index.Set(record.Key, offset)
		offset += size
	}
	return nil
}

// Close releases the handle. Records are durable once Put returns, so Close
// never rewrites the log.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.log = nil
	db.index = newIndex()
	return nil
}

// Put appends a record to the log and updates the index.
func (db *DB) Put(key string, value []byte) error {
	record := Record{Key: key, Value: value}
	encoded, err := record.Encode()
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(db.logPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}
	file, err := os.OpenFile(db.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open log file")
	}
	if _, err := file.Write(encoded); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to write to log file")
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to sync log file")
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close log file")
	}

	offset := int64(len(db.log))
	db.log = append(db.log, encoded...)
	db.index.Set(key, offset)
	return nil
}

// Get retrieves the latest value written for key.
func (db *DB) Get(key string) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	offset, ok := db.index.Get(key)
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "key %s", key)
	}
	record, _, err := DecodeRecord(db.log, offset)
	if err != nil {
		return nil, err
	}
	return record.Value, nil
}

// Has reports whether key has been written.
func (db *DB) Has(key string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.index.Get(key)
	return ok
}

// Len reports the number of distinct keys.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.index.Len()
}

// Scan calls fn for every record in log order, including superseded ones.
func (db *DB) Scan(fn func(Record) error) error {
	db.mu.RLock()
	log := db.log
	db.mu.RUnlock()

	offset := int64(0)
	for offset < int64(len(log)) {
		record, bytesConsumed, err := DecodeRecord(log, offset)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		offset += bytesConsumed
	}
	return nil
}
