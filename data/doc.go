// Package data implements the document model stored in partition files.
//
// A document is a tree of named elements. A [Group] holds ordered child
// elements and optional attributes; an [Atomic] holds a single string value.
// Both may carry a repeat id used to tell repeated siblings apart.
//
// The JSON form is the one used on disk:
//
//	{"name":"recordInfo","children":[{"name":"id","value":"p1"}]}
//
// Groups always serialize a "children" array, atomics a "value". Empty
// attributes and repeat ids are omitted.
package data
