// Package storage resolves attachment sources for outgoing mail.
//
// A campaign attaches the same file to every message, and the file is re-read
// for every recipient. The file may live on the local filesystem or in an
// S3-compatible bucket; both are exposed through the read-only Storage
// interface.
//
// # Basic Usage
//
//	local := storage.NewLocal("")
//	s3store, err := storage.NewS3(storage.S3Config{
//		AccessKey: os.Getenv("S3_ACCESS_KEY"),
//		SecretKey: os.Getenv("S3_SECRET_KEY"),
//		Region:    "eu-central-1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := storage.NewMux(local, s3store)
//
//	// Local path
//	info, err := store.Stat(ctx, "brochure.pdf")
//
//	// S3 object
//	rc, err := store.Open(ctx, "s3://campaign-assets/2024/brochure.pdf")
//	defer rc.Close()
//
// # Errors
//
// All implementations map provider errors to the package sentinels, so callers
// only need errors.Is:
//
//	if errors.Is(err, storage.ErrNotFound) {
//		// attachment is missing
//	}
package storage
