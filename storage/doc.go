// Package storage persists finished transcripts and exports behind a small
// object-store interface.
//
// # Backends
//
//   - storage/local: a directory on disk (the default)
//   - storage/s3: Amazon S3 and S3-compatible stores such as MinIO
//
// Backends register themselves on import; New picks one by name:
//
//	storage:
//	  provider: "s3"
//	  bucket: "transcripts"
//	  region: "eu-west-1"
package storage
