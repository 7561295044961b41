package diskstorage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/olovm/cora-diskstorage/backup"
	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/fs"
	"github.com/olovm/cora-diskstorage/internal/partfile"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/resource"
	"github.com/olovm/cora-diskstorage/internal/scan"
)

// Storage keeps an in-memory Index and a directory of partition files in
// step. Mutations are serialized by one lock per instance and rewrite every
// affected partition before they return.
type Storage struct {
	mu     sync.RWMutex
	closed bool

	base            string
	index           Index
	fsys            fs.FileSystem
	store           *partfile.Store
	writer          *partitionWriter
	recoveryWorkers int
	logger          *Logger
	metrics         MetricsCollector

	legacy   []partitionFile
	recovery RecoveryStats
}

// Open loads every partition file below basePath into idx and returns a
// Storage that persists later mutations of idx. basePath must exist.
// Any failure while loading aborts Open.
func Open(ctx context.Context, basePath string, idx Index, optFns ...Option) (*Storage, error) {
	if idx == nil {
		return nil, errors.New("diskstorage: nil index")
	}
	o := applyOptions(optFns)

	var limiter *resource.Controller
	if o.writeLimit > 0 {
		limiter = resource.NewController(resource.Config{IOLimitBytesPerSec: o.writeLimit})
	}
	store, err := partfile.New(basePath, partfile.Options{
		FS:        o.fileSystem,
		Converter: o.converter,
		Level:     o.compressionLevel,
		Atomic:    o.atomicWrites,
		Limiter:   limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("diskstorage: %w", err)
	}

	logger := o.logger.WithBasePath(basePath)
	s := &Storage{
		base:            basePath,
		index:           idx,
		fsys:            o.fileSystem,
		store:           store,
		writer:          newPartitionWriter(store, idx, logger, o.metricsCollector),
		recoveryWorkers: o.recoveryWorkers,
		logger:          logger,
		metrics:         o.metricsCollector,
	}

	stats, err := s.recover(ctx)
	if err != nil {
		return nil, err
	}
	s.recovery = stats
	return s, nil
}

// Create stores a new record in the index and writes its partitions under
// dataDivider. A record type or divider that cannot form a partition file
// name fails with ErrMalformedName before the index is touched.
func (s *Storage) Create(ctx context.Context, recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error {
	start := time.Now()
	err := s.mutate(ctx, recordType, func() (string, error) {
		if err := validateName(recordType, dataDivider); err != nil {
			return "", err
		}
		return dataDivider, s.index.Create(recordType, recordID, record, collectedTerms, linkList, dataDivider)
	})
	s.metrics.RecordCreate(time.Since(start), err)
	s.logger.WithRecordType(recordType).WithDivider(dataDivider).LogCreate(ctx, recordID, err)
	return err
}

// Update replaces a record in the index. Partitions are rewritten for the
// divider the record had before the update, so a record moved to another
// divider leaves its old partition.
func (s *Storage) Update(ctx context.Context, recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error {
	start := time.Now()
	err := s.mutate(ctx, recordType, func() (string, error) {
		if err := validateName(recordType, dataDivider); err != nil {
			return "", err
		}
		previous, err := s.index.DataDivider(recordType, recordID)
		if err != nil {
			return "", err
		}
		return previous, s.index.Update(recordType, recordID, record, collectedTerms, linkList, dataDivider)
	})
	s.metrics.RecordUpdate(time.Since(start), err)
	s.logger.WithRecordType(recordType).WithDivider(dataDivider).LogUpdate(ctx, recordID, err)
	return err
}

// Delete removes a record from the index and rewrites the partitions of the
// divider it belonged to.
func (s *Storage) Delete(ctx context.Context, recordType, recordID string) error {
	start := time.Now()
	err := s.mutate(ctx, recordType, func() (string, error) {
		previous, err := s.index.DataDivider(recordType, recordID)
		if err != nil {
			return "", err
		}
		return previous, s.index.Delete(recordType, recordID)
	})
	s.metrics.RecordDelete(time.Since(start), err)
	s.logger.WithRecordType(recordType).LogDelete(ctx, recordID, err)
	return err
}

// mutate applies an index mutation and, if it succeeds, persists it.
// apply returns the divider whose partitions must be rewritten. Once apply
// has run, cancellation of ctx no longer stops the disk write.
func (s *Storage) mutate(ctx context.Context, recordType string, apply func() (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	divider, err := apply()
	if err != nil {
		return err
	}
	return s.writer.write(context.WithoutCancel(ctx), recordType, divider)
}

// validateName rejects a record type or divider that would be written to a
// partition file recovery cannot map back to it.
func validateName(recordType, divider string) error {
	if err := partition.Validate(recordType, divider); err != nil {
		return translateError(err)
	}
	return nil
}

// Read returns a record from the index.
func (s *Storage) Read(recordType, recordID string) (*data.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.index.Read(recordType, recordID)
}

// RecordsExistForType reports whether the index holds any record of recordType.
func (s *Storage) RecordsExistForType(recordType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.index.RecordsExistForType(recordType)
}

// BasePath returns the directory the storage was opened on.
func (s *Storage) BasePath() string { return s.base }

// RecoveryStats returns what Open loaded.
func (s *Storage) RecoveryStats() RecoveryStats { return s.recovery }

// LegacyFiles returns the plain (uncompressed) partition files found by Open
// that MigrateLegacy has not rewritten yet.
func (s *Storage) LegacyFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.legacy))
	for _, f := range s.legacy {
		paths = append(paths, f.path)
	}
	return paths
}

// MigrateLegacy rewrites every plain partition file found at its canonical
// location as gzip and removes the plain file. Plain files elsewhere in the
// tree are left alone and reported as skipped in the log. It returns the
// number of files migrated.
func (s *Storage) MigrateLegacy(ctx context.Context) (migrated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	var remaining []partitionFile
	defer func() {
		s.logger.LogMigration(ctx, migrated, len(remaining), err)
	}()

	for i, f := range s.legacy {
		if f.path != partition.Path(s.base, f.name.Category, f.name.Divider, false) {
			remaining = append(remaining, f)
			continue
		}
		exists, rerr := fs.Exists(s.fsys, f.path)
		if rerr == nil && !exists {
			// Already replaced by a partition write since Open.
			continue
		}
		var text []byte
		if rerr == nil {
			text, rerr = s.store.ReadText(f.path)
		}
		if rerr == nil {
			_, rerr = s.store.WriteText(ctx, f.name.Category, f.name.Divider, text)
		}
		if rerr != nil {
			remaining = append(remaining, s.legacy[i:]...)
			s.legacy = remaining
			return migrated, &PartitionError{Op: "migrate", Path: f.path, cause: diskError(rerr)}
		}
		migrated++
	}
	s.legacy = remaining
	return migrated, nil
}

// Backup mirrors every partition file to target and removes objects from
// target that no longer exist locally. Mutations wait until it finishes.
func (s *Storage) Backup(ctx context.Context, target backup.Target) (backup.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return backup.Result{}, ErrClosed
	}

	paths, err := scan.Scan(s.fsys, s.base)
	if err != nil {
		return backup.Result{}, diskError(err)
	}
	files := make([]backup.File, 0, len(paths))
	for _, path := range paths {
		filename := filepath.Base(path)
		if partition.IsTemp(filename) {
			continue
		}
		if _, err := partition.Parse(filename); err != nil {
			continue
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			return backup.Result{}, err
		}
		files = append(files, backup.File{Name: filepath.ToSlash(rel), Path: path})
	}

	res, err := backup.Run(ctx, s.fsys, files, target)
	if err != nil {
		return res, diskError(err)
	}
	s.logger.InfoContext(ctx, "backup completed",
		"uploaded", res.Uploaded,
		"pruned", res.Pruned,
		"bytes", res.Bytes,
	)
	return res, nil
}
