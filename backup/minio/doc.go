// Package minio provides a backup.Target for MinIO and S3-compatible storage.
package minio
