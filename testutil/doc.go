// Package testutil provides testing utilities for diskstorage.
//
// This package is intended for use in tests only. It builds record, term
// and link documents, inspects partition trees on disk, and provides a
// seeded random source for randomized mutation sequences.
//
//	rng := testutil.NewRNG(seed)
//	id := rng.Pick("p1", "p2", "p3")
//	rec := testutil.Record("person", id, "name", rng.Word(6))
package testutil
