// Package model defines the value types shared between the storage layer and
// record index implementations.
//
// # Types
//
//   - DividerGroup: a document tagged with the data divider it belongs to
//   - CollectedStorageTerm: a fully qualified collected term (type, key, id)
//   - RecordLinks: the outbound link list of one record
package model
