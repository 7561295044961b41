package memory

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/olovm/cora-diskstorage/data"
	"github.com/olovm/cora-diskstorage/model"
)

var (
	// ErrConflict is returned by Create for a record id that is already taken.
	ErrConflict = errors.New("memory: record already exists")
	// ErrNotFound is returned for a record that does not exist.
	ErrNotFound = errors.New("memory: record not found")
)

// Names inside the collected terms document passed to Create and Update.
const (
	storageName          = "storage"
	collectedTermName    = "collectedDataTerm"
	collectTermIDName    = "collectTermId"
	collectTermValueName = "collectTermValue"
)

// Index is an in-memory record index.
type Index struct {
	mu      sync.RWMutex
	records map[string]map[string]model.DividerGroup
	links   map[string]map[string]model.DividerGroup
	terms   map[string]map[string][]model.CollectedStorageTerm
}

// New creates an empty index.
func New() *Index {
	return &Index{
		records: make(map[string]map[string]model.DividerGroup),
		links:   make(map[string]map[string]model.DividerGroup),
		terms:   make(map[string]map[string][]model.CollectedStorageTerm),
	}
}

// Create stores a new record together with its collected terms and links.
func (x *Index) Create(recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.records[recordType][recordID]; ok {
		return fmt.Errorf("%w: %s/%s", ErrConflict, recordType, recordID)
	}
	x.put(recordType, recordID, record, collectedTerms, linkList, dataDivider)
	return nil
}

// Update replaces an existing record, its collected terms and its links.
func (x *Index) Update(recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.records[recordType][recordID]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, recordType, recordID)
	}
	x.put(recordType, recordID, record, collectedTerms, linkList, dataDivider)
	return nil
}

func (x *Index) put(recordType, recordID string, record, collectedTerms, linkList *data.Group, dataDivider string) {
	x.ensure(recordType)
	x.records[recordType][recordID] = model.NewDividerGroup(dataDivider, record)

	x.removeTerms(recordType, recordID)
	for _, t := range extractTerms(recordType, recordID, collectedTerms, dataDivider) {
		x.storeTerm(t)
	}

	x.removeLinks(recordType, recordID)
	if linkList != nil && linkList.HasChildren() {
		x.storeLinks(recordType, recordID, model.NewDividerGroup(dataDivider, linkList))
	}
}

// Delete removes a record, its collected terms and its links.
func (x *Index) Delete(recordType, recordID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.records[recordType][recordID]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, recordType, recordID)
	}
	delete(x.records[recordType], recordID)
	if len(x.records[recordType]) == 0 {
		delete(x.records, recordType)
	}
	x.removeTerms(recordType, recordID)
	x.removeLinks(recordType, recordID)
	return nil
}

// Read returns the stored record.
func (x *Index) Read(recordType, recordID string) (*data.Group, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rec, ok := x.records[recordType][recordID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, recordType, recordID)
	}
	return rec.Group, nil
}

// DataDivider returns the divider the record is stored under.
func (x *Index) DataDivider(recordType, recordID string) (string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rec, ok := x.records[recordType][recordID]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, recordType, recordID)
	}
	return rec.DataDivider, nil
}

// RecordsExistForType reports whether at least one record of recordType is stored.
func (x *Index) RecordsExistForType(recordType string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records[recordType]) > 0
}

// EnsureStorageForType makes recordType known even before it has records.
func (x *Index) EnsureStorageForType(recordType string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ensure(recordType)
}

func (x *Index) ensure(recordType string) {
	if _, ok := x.records[recordType]; !ok {
		x.records[recordType] = make(map[string]model.DividerGroup)
	}
}

// StoreRecord puts a record without any existence check.
func (x *Index) StoreRecord(recordType, recordID string, record model.DividerGroup) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ensure(recordType)
	x.records[recordType][recordID] = record
}

// RecordsOfType returns a copy of the records of recordType keyed by id.
func (x *Index) RecordsOfType(recordType string) map[string]model.DividerGroup {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return maps.Clone(x.records[recordType])
}

// RecordTypes returns every type with at least one record, sorted.
func (x *Index) RecordTypes() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	types := make([]string, 0, len(x.records))
	for t, recs := range x.records {
		if len(recs) > 0 {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// StoreLinks puts the link list of a record.
func (x *Index) StoreLinks(recordType, recordID string, links model.DividerGroup) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.storeLinks(recordType, recordID, links)
}

func (x *Index) storeLinks(recordType, recordID string, links model.DividerGroup) {
	if _, ok := x.links[recordType]; !ok {
		x.links[recordType] = make(map[string]model.DividerGroup)
	}
	x.links[recordType][recordID] = links
}

func (x *Index) removeLinks(recordType, recordID string) {
	delete(x.links[recordType], recordID)
	if len(x.links[recordType]) == 0 {
		delete(x.links, recordType)
	}
}

// Links returns the link list stored for a record.
func (x *Index) Links(recordType, recordID string) (model.DividerGroup, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	l, ok := x.links[recordType][recordID]
	return l, ok
}

// LinkLists returns every stored link list in a new slice.
func (x *Index) LinkLists() []model.RecordLinks {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []model.RecordLinks
	for recordType, byID := range x.links {
		for recordID, links := range byID {
			out = append(out, model.RecordLinks{RecordType: recordType, RecordID: recordID, Links: links})
		}
	}
	return out
}

// StoreCollectedTerm adds a term. Storing the same term twice keeps one copy.
func (x *Index) StoreCollectedTerm(term model.CollectedStorageTerm) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.storeTerm(term)
}

func (x *Index) storeTerm(term model.CollectedStorageTerm) {
	byID, ok := x.terms[term.Type]
	if !ok {
		byID = make(map[string][]model.CollectedStorageTerm)
		x.terms[term.Type] = byID
	}
	if slices.Contains(byID[term.ID], term) {
		return
	}
	byID[term.ID] = append(byID[term.ID], term)
}

func (x *Index) removeTerms(recordType, recordID string) {
	delete(x.terms[recordType], recordID)
	if len(x.terms[recordType]) == 0 {
		delete(x.terms, recordType)
	}
}

// CollectedTerms returns the terms stored for a record, sorted by key and value.
func (x *Index) CollectedTerms(recordType, recordID string) []model.CollectedStorageTerm {
	x.mu.RLock()
	defer x.mu.RUnlock()

	terms := slices.Clone(x.terms[recordType][recordID])
	slices.SortFunc(terms, func(a, b model.CollectedStorageTerm) int {
		return cmp.Or(cmp.Compare(a.Key, b.Key), cmp.Compare(a.Value, b.Value))
	})
	return terms
}

// CollectedTermsByDivider groups every stored term by its data divider.
func (x *Index) CollectedTermsByDivider() map[string][]model.CollectedStorageTerm {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make(map[string][]model.CollectedStorageTerm)
	for _, byID := range x.terms {
		for _, terms := range byID {
			for _, t := range terms {
				out[t.DataDivider] = append(out[t.DataDivider], t)
			}
		}
	}
	return out
}

// extractTerms reads the storage/collectedDataTerm children of a collected
// terms document. Children missing an id or value are ignored.
func extractTerms(recordType, recordID string, collectedTerms *data.Group, dataDivider string) []model.CollectedStorageTerm {
	if collectedTerms == nil {
		return nil
	}
	storage, err := collectedTerms.FirstGroupWithName(storageName)
	if err != nil {
		return nil
	}

	var terms []model.CollectedStorageTerm
	for _, child := range storage.Children() {
		g, ok := child.(*data.Group)
		if !ok || g.NameInData() != collectedTermName {
			continue
		}
		key, err := g.FirstAtomicValueWithName(collectTermIDName)
		if err != nil {
			continue
		}
		value, err := g.FirstAtomicValueWithName(collectTermValueName)
		if err != nil {
			continue
		}
		terms = append(terms, model.CollectedStorageTerm{
			Type:        recordType,
			Key:         key,
			ID:          recordID,
			Value:       value,
			DataDivider: dataDivider,
		})
	}
	return terms
}
