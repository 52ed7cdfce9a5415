// Package storage provides the object store media files are uploaded to.
//
// It wraps the MinIO Go client behind a small Client interface, which works
// against both AWS S3 and self-hosted MinIO instances and is mocked in tests
// through core/storage/mocks.
//
// # Operations
//
//   - BucketExists and MakeBucket, combined by EnsureBucket at startup.
//   - PutObject: Uploads content (with size and content type).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
package storage
