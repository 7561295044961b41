package diskstorage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/internal/scan"
	"github.com/olovm/cora-diskstorage/model"
)

// RecoveryStats summarizes what Open loaded from disk.
type RecoveryStats struct {
	Files          int
	LegacyFiles    int
	Records        int
	LinkLists      int
	CollectedTerms int
	Duration       time.Duration
}

type partitionFile struct {
	path string
	name partition.Name
}

// recover rebuilds the index from every partition file below the base path.
func (s *Storage) recover(ctx context.Context) (stats RecoveryStats, err error) {
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		s.metrics.RecordRecovery(stats.Files, stats.Duration, err)
		s.logger.LogRecovery(ctx, stats, err)
	}()

	if err = ctx.Err(); err != nil {
		return stats, err
	}
	files, err := s.partitionFiles(ctx)
	if err != nil {
		return stats, err
	}

	docs, err := s.decode(ctx, files)
	if err != nil {
		return stats, err
	}

	for i, f := range files {
		if err := s.ingest(f, docs[i], &stats); err != nil {
			return stats, err
		}
		stats.Files++
		if !f.name.Compressed {
			stats.LegacyFiles++
			s.legacy = append(s.legacy, f)
		}
	}
	return stats, nil
}

// partitionFiles scans the base path and parses every file name.
func (s *Storage) partitionFiles(ctx context.Context) ([]partitionFile, error) {
	paths, err := scan.Scan(s.fsys, s.base)
	if err != nil {
		return nil, diskError(err)
	}

	files := make([]partitionFile, 0, len(paths))
	for _, path := range paths {
		filename := filepath.Base(path)
		if partition.IsTemp(filename) {
			s.logger.WarnContext(ctx, "skipping leftover temp file", "path", path)
			continue
		}
		name, err := partition.Parse(filename)
		if err != nil {
			return nil, &PartitionError{Op: "recover", Path: path, cause: translateError(err)}
		}
		files = append(files, partitionFile{path: path, name: name})
	}
	return files, nil
}

// decode reads every file, on up to recoveryWorkers goroutines.
func (s *Storage) decode(ctx context.Context, files []partitionFile) ([]*data.Group, error) {
	docs := make([]*data.Group, len(files))

	if s.recoveryWorkers <= 1 {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			doc, err := s.read(f.path)
			if err != nil {
				return nil, err
			}
			docs[i] = doc
		}
		return docs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recoveryWorkers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.read(f.path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Storage) read(path string) (*data.Group, error) {
	doc, err := s.store.Read(path)
	if err != nil {
		return nil, &PartitionError{Op: "read", Path: path, cause: diskError(err)}
	}
	return doc, nil
}

// ingest routes one decoded partition into the index.
func (s *Storage) ingest(f partitionFile, doc *data.Group, stats *RecoveryStats) error {
	var err error
	switch f.name.Category {
	case partition.LinkLists:
		err = s.ingestLinkLists(f.name.Divider, doc, stats)
	case partition.CollectedData:
		s.writer.seenCollected[f.name.Divider] = struct{}{}
		err = s.ingestCollectedTerms(doc, stats)
	default:
		err = s.ingestRecords(f.name.Category, f.name.Divider, doc, stats)
	}
	if err != nil {
		return &PartitionError{Op: "recover", Path: f.path, cause: err}
	}
	return nil
}

func (s *Storage) ingestLinkLists(divider string, doc *data.Group, stats *RecoveryStats) error {
	for _, typeElement := range doc.Children() {
		typeGroup, err := asGroup(typeElement)
		if err != nil {
			return err
		}
		recordType := typeGroup.NameInData()
		s.index.EnsureStorageForType(recordType)

		for _, recordElement := range typeGroup.Children() {
			recordGroup, err := asGroup(recordElement)
			if err != nil {
				return err
			}
			links, err := recordGroup.FirstGroupWithName(collectedLinksName)
			if err != nil {
				return corrupt(err)
			}
			s.index.StoreLinks(recordType, recordGroup.NameInData(), model.NewDividerGroup(divider, links))
			stats.LinkLists++
		}
	}
	return nil
}

func (s *Storage) ingestCollectedTerms(doc *data.Group, stats *RecoveryStats) error {
	for _, element := range doc.Children() {
		termGroup, err := asGroup(element)
		if err != nil {
			return err
		}
		var term model.CollectedStorageTerm
		for _, field := range []struct {
			name string
			dst  *string
		}{
			{termTypeName, &term.Type},
			{termKeyName, &term.Key},
			{termIDName, &term.ID},
			{termValueName, &term.Value},
			{termDataDividerName, &term.DataDivider},
		} {
			v, err := termGroup.FirstAtomicValueWithName(field.name)
			if err != nil {
				return corrupt(err)
			}
			*field.dst = v
		}
		s.index.StoreCollectedTerm(term)
		stats.CollectedTerms++
	}
	return nil
}

func (s *Storage) ingestRecords(recordType, divider string, doc *data.Group, stats *RecoveryStats) error {
	s.index.EnsureStorageForType(recordType)

	for _, element := range doc.Children() {
		record, err := asGroup(element)
		if err != nil {
			return err
		}
		info, err := record.FirstGroupWithName(recordInfoName)
		if err != nil {
			return corrupt(err)
		}
		id, err := info.FirstAtomicValueWithName(recordInfoIDName)
		if err != nil {
			return corrupt(err)
		}
		s.index.StoreRecord(recordType, id, model.NewDividerGroup(divider, record))
		stats.Records++
	}
	return nil
}

func asGroup(e data.Element) (*data.Group, error) {
	g, ok := e.(*data.Group)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a group", ErrCorruptPartition, e.NameInData())
	}
	return g, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", ErrCorruptPartition, err)
}
