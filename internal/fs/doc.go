// Package fs is the filesystem seam under the partition store.
//
// [LocalFS] forwards to package os and is what fs.Default holds. [FaultyFS]
// wraps another FileSystem and fails opens, removes, syncs, directory reads
// or writes past a byte budget for names matching a rule:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("person_sys1", fs.Fault{FailOnOpen: true})
//
// Calls take no context; a single syscall cannot be interrupted.
package fs
