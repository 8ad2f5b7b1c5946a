package fetch

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Upload pushes the local file to an s3://bucket/key ref.
func Upload(ctx context.Context, ref, localPath string) error {
	bucket, key, err := ParseS3URL(ref)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	cli, err := newS3Client(ctx)
	if err != nil {
		return err
	}
	_, err = cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", ref, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("uploaded assembled document")
	return nil
}
