// Package s3 implements backup.Target on Amazon S3 and any service that
// speaks the S3 API.
//
// Objects are written through the SDK upload manager, so large partition
// files are sent as multipart uploads. A Ledger can optionally record each
// completed backup run in DynamoDB.
package s3
