package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 uploads episodes to a bucket fronted by a CDN.
type S3 struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

func NewS3(ctx context.Context, bucket, cdnBaseURL string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		cdnBaseURL: cdnBaseURL,
	}, nil
}

// Put uploads the episode and returns its public URL.
func (s *S3) Put(ctx context.Context, episodeID, mp3Path string) (string, error) {
	key := "episodes/" + episodeID + ".mp3"

	f, err := os.Open(mp3Path)
	if err != nil {
		return "", fmt.Errorf("open episode: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat episode: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          f,
		ContentType:   aws.String("audio/mpeg"),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	if s.cdnBaseURL != "" {
		return s.cdnBaseURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
