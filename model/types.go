package model

import (
	"fmt"

	"github.com/olovm/cora-diskstorage/data"
)

// DividerGroup associates a document with the data divider (tenant) it is
// stored under. It is treated as immutable once created.
type DividerGroup struct {
	DataDivider string
	Group       *data.Group
}

// NewDividerGroup creates a DividerGroup.
func NewDividerGroup(dataDivider string, g *data.Group) DividerGroup {
	return DividerGroup{DataDivider: dataDivider, Group: g}
}

// CollectedStorageTerm is a denormalized, searchable fact extracted from a
// record. Type is the record type, Key the collect term id and ID the record id.
type CollectedStorageTerm struct {
	Type        string
	Key         string
	ID          string
	Value       string
	DataDivider string
}

// String returns a compact representation for logs.
func (t CollectedStorageTerm) String() string {
	return fmt.Sprintf("%s/%s/%s=%q@%s", t.Type, t.Key, t.ID, t.Value, t.DataDivider)
}

// RecordLinks is the link list of one record.
type RecordLinks struct {
	RecordType string
	RecordID   string
	Links      DividerGroup
}
