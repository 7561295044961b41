// Command diskstorage inspects and maintains a partition file tree.
//
// Usage:
//
//	diskstorage [flags] <command> [args]
//
// Commands:
//
//	ls       - list partition files
//	verify   - load the tree into a fresh index and report what it holds
//	cat      - print one partition file as JSON or YAML
//	migrate  - rewrite legacy plain files as gzip
//	backup   - mirror the tree to a directory, MinIO or S3
//	version  - show version information
package main

import (
	"fmt"
	"os"

	"github.com/olovm/cora-diskstorage/cmd/diskstorage/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
