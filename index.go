package diskstorage

import (
	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/model"
)

// RecordIndex is the record part of the in-memory index a Storage persists.
// Lookup, duplicate and not-found semantics belong to the implementation;
// Storage passes its errors through unchanged.
type RecordIndex interface {
	Create(recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error
	Update(recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error
	Delete(recordType, recordID string) error
	Read(recordType, recordID string) (*data.Group, error)

	// DataDivider returns the divider a stored record currently belongs to.
	DataDivider(recordType, recordID string) (string, error)
	RecordsExistForType(recordType string) bool

	// EnsureStorageForType and StoreRecord load recovered records without
	// any of the checks Create performs.
	EnsureStorageForType(recordType string)
	StoreRecord(recordType, recordID string, record model.DividerGroup)

	// RecordsOfType returns every record of recordType keyed by record id.
	RecordsOfType(recordType string) map[string]model.DividerGroup
}

// LinkIndex holds the outgoing link list of each record.
type LinkIndex interface {
	StoreLinks(recordType, recordID string, links model.DividerGroup)
	LinkLists() []model.RecordLinks
}

// TermIndex holds collected storage terms.
type TermIndex interface {
	StoreCollectedTerm(term model.CollectedStorageTerm)
	// CollectedTermsByDivider groups every stored term by its data divider.
	CollectedTermsByDivider() map[string][]model.CollectedStorageTerm
}

// Index is everything a Storage needs from the in-memory index.
// memory.Index is the reference implementation.
type Index interface {
	RecordIndex
	LinkIndex
	TermIndex
}

// DocumentConverter turns partition documents into JSON text and back.
// data.Converter implements it.
type DocumentConverter interface {
	Parse(text []byte) (*data.Group, error)
	Serialize(g *data.Group) ([]byte, error)
}
