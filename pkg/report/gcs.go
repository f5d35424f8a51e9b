package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// UploadLog copies the report log to a GCS bucket so partners can hand
// results back without shipping files around. serviceAccount may be
// empty when ambient credentials are available.
func UploadLog(ctx context.Context, bucket, logFile, serviceAccount string) error {
	var opts []option.ClientOption
	if serviceAccount != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccount))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("error creating storage client: %v", err)
	}
	defer client.Close()

	f, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("error opening log %s: %v", logFile, err)
	}
	defer f.Close()

	object := filepath.Base(logFile)
	wc := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		wc.Close()
		return fmt.Errorf("error uploading log to gs://%s/%s: %v", bucket, object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("error finalizing upload to gs://%s/%s: %v", bucket, object, err)
	}
	return nil
}
