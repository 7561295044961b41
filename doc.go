// Package diskstorage persists a Cora record index as a tree of
// gzip-compressed JSON partition files.
//
// Every record, collected term and link list lives in memory in an Index.
// Storage wraps that index: each Create, Update and Delete is applied to the
// index first and then the affected partitions are rewritten from the
// index's current state. Open rebuilds the index from disk.
//
// # Layout
//
// Files are grouped by data divider:
//
//	<base>/<divider>/<recordType>_<divider>.json.gz
//	<base>/<divider>/collectedData_<divider>.json.gz
//	<base>/<divider>/linkLists_<divider>.json.gz
//
// A partition holds every item of its category for that divider. When a
// partition becomes empty its file is removed, and so is the divider
// directory once nothing else is left in it. Plain .json files written by
// older versions are still read; MigrateLegacy rewrites them compressed.
//
// # Quick Start
//
//	ctx := context.Background()
//	idx := memory.New()
//	s, err := diskstorage.Open(ctx, "/data/cora", idx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Create(ctx, "person", "p1", record, collectedTerms, links, "sys1")
//
// # Errors
//
// Index errors, such as a duplicate or missing record, are returned
// unchanged. Disk failures match ErrIO, broken documents match
// ErrCorruptPartition and bad file names match ErrMalformedName, as do
// record types and dividers given to Create or Update that cannot form a
// file name. Failures tied to one file are a *PartitionError carrying its
// path.
//
// # Options
//
// Compression level, atomic temp-and-rename writes, write throttling,
// parallel recovery, the JSON codec, logging and metrics are configured
// with the With* options passed to Open.
package diskstorage
