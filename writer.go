package diskstorage

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/internal/partfile"
	"github.com/olovm/cora-diskstorage/internal/partition"
	"github.com/olovm/cora-diskstorage/model"
)

// Document names used in partition files.
const (
	recordListName      = "recordList"
	storageTermName     = "storageTerm"
	collectedLinksName  = "collectedDataLinks"
	recordInfoName      = "recordInfo"
	recordInfoIDName    = "id"
	termTypeName        = "type"
	termKeyName         = "key"
	termIDName          = "id"
	termValueName       = "value"
	termDataDividerName = "dataDivider"
)

// partitionWriter rewrites the partitions affected by one mutation. It is
// only used with the Storage write lock held.
type partitionWriter struct {
	store   *partfile.Store
	index   Index
	logger  *Logger
	metrics MetricsCollector

	// seenCollected holds every divider that has a collectedData partition
	// on disk, as far as this instance knows.
	seenCollected map[string]struct{}
}

func newPartitionWriter(store *partfile.Store, index Index, logger *Logger, metrics MetricsCollector) *partitionWriter {
	return &partitionWriter{
		store:         store,
		index:         index,
		logger:        logger,
		metrics:       metrics,
		seenCollected: make(map[string]struct{}),
	}
}

// write runs the records, collected terms and link lists passes for a
// mutation of recordType that touched divider.
func (w *partitionWriter) write(ctx context.Context, recordType, divider string) error {
	if err := w.writeRecords(ctx, recordType, divider); err != nil {
		return err
	}
	if err := w.writeCollectedTerms(ctx); err != nil {
		return err
	}
	return w.writeLinkLists(ctx, divider)
}

func (w *partitionWriter) writeRecords(ctx context.Context, recordType, divider string) error {
	if !w.index.RecordsExistForType(recordType) {
		return w.remove(ctx, recordType, divider)
	}

	records := w.index.RecordsOfType(recordType)
	lists := make(map[string]*data.Group)
	for _, id := range slices.Sorted(maps.Keys(records)) {
		rec := records[id]
		list, ok := lists[rec.DataDivider]
		if !ok {
			list = data.NewGroup(recordListName)
			lists[rec.DataDivider] = list
		}
		list.AddChild(rec.Group)
	}

	for _, d := range slices.Sorted(maps.Keys(lists)) {
		if err := w.put(ctx, recordType, d, lists[d]); err != nil {
			return err
		}
	}
	if _, ok := lists[divider]; !ok {
		return w.remove(ctx, recordType, divider)
	}
	return nil
}

func (w *partitionWriter) writeCollectedTerms(ctx context.Context) error {
	byDivider := w.index.CollectedTermsByDivider()

	for _, d := range slices.Sorted(maps.Keys(w.seenCollected)) {
		if err := w.remove(ctx, partition.CollectedData, d); err != nil {
			return err
		}
		delete(w.seenCollected, d)
	}

	for _, d := range slices.Sorted(maps.Keys(byDivider)) {
		terms := byDivider[d]
		if len(terms) == 0 {
			continue
		}
		if err := w.put(ctx, partition.CollectedData, d, collectedDataGroup(terms)); err != nil {
			return err
		}
		w.seenCollected[d] = struct{}{}
	}
	return nil
}

func (w *partitionWriter) writeLinkLists(ctx context.Context, divider string) error {
	lists := w.index.LinkLists()
	slices.SortFunc(lists, func(a, b model.RecordLinks) int {
		return cmp.Or(cmp.Compare(a.RecordType, b.RecordType), cmp.Compare(a.RecordID, b.RecordID))
	})

	roots := make(map[string]*data.Group)
	typeGroups := make(map[[2]string]*data.Group)
	for _, l := range lists {
		d := l.Links.DataDivider
		root, ok := roots[d]
		if !ok {
			root = data.NewGroup(partition.LinkLists)
			roots[d] = root
		}
		key := [2]string{d, l.RecordType}
		typeGroup, ok := typeGroups[key]
		if !ok {
			typeGroup = data.NewGroup(l.RecordType)
			typeGroups[key] = typeGroup
			root.AddChild(typeGroup)
		}
		idGroup := data.NewGroup(l.RecordID)
		idGroup.AddChild(l.Links.Group)
		typeGroup.AddChild(idGroup)
	}

	for _, d := range slices.Sorted(maps.Keys(roots)) {
		if err := w.put(ctx, partition.LinkLists, d, roots[d]); err != nil {
			return err
		}
	}
	if _, ok := roots[divider]; !ok {
		return w.remove(ctx, partition.LinkLists, divider)
	}
	return nil
}

func (w *partitionWriter) put(ctx context.Context, category, divider string, doc *data.Group) error {
	start := time.Now()
	n, err := w.store.Write(ctx, category, divider, doc)
	err = diskError(err)
	w.metrics.RecordPartitionWrite(kindOf(category), n, time.Since(start), err)
	w.logger.WithDivider(divider).LogPartitionWrite(ctx, category, n, err)
	return err
}

func (w *partitionWriter) remove(ctx context.Context, category, divider string) error {
	removed, err := w.store.Remove(category, divider)
	err = diskError(err)
	if removed || err != nil {
		w.metrics.RecordPartitionRemove(kindOf(category), err)
		w.logger.WithDivider(divider).LogPartitionRemove(ctx, category, err)
	}
	return err
}

// collectedDataGroup builds the collectedData document for one divider.
func collectedDataGroup(terms []model.CollectedStorageTerm) *data.Group {
	sorted := slices.Clone(terms)
	slices.SortFunc(sorted, func(a, b model.CollectedStorageTerm) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Key, b.Key),
			cmp.Compare(a.ID, b.ID),
			cmp.Compare(a.Value, b.Value),
		)
	})

	root := data.NewGroup(partition.CollectedData)
	for _, t := range sorted {
		g := data.NewGroup(storageTermName)
		g.AddChild(
			data.NewAtomic(termTypeName, t.Type),
			data.NewAtomic(termKeyName, t.Key),
			data.NewAtomic(termIDName, t.ID),
			data.NewAtomic(termValueName, t.Value),
			data.NewAtomic(termDataDividerName, t.DataDivider),
		)
		root.AddChild(g)
	}
	return root
}

func kindOf(category string) string {
	switch category {
	case partition.CollectedData:
		return KindCollectedData
	case partition.LinkLists:
		return KindLinkLists
	default:
		return KindRecords
	}
}
