// Package memory is an in-memory record index for diskstorage.
//
// It keeps records, link lists and collected storage terms in maps guarded
// by a single RWMutex. It does no persistence of its own; wrap it with
// diskstorage.Open to keep it on disk.
package memory
