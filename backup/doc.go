// Package backup mirrors partition files to another store.
//
// A Target only needs to put, delete and list named objects. Dir mirrors to
// a local directory, Memory keeps objects in memory for tests, and package
// backup/minio mirrors to MinIO or any S3-compatible bucket.
package backup
