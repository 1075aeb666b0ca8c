// Package minio resolves finished recordings to presigned object URLs.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dkeye/OneVoice/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

const objectPrefix = "recordings"

// Recordings expects the merged artifact at recordings/<session id>.mp4 in
// Bucket; the transcode worker writes it there.
type Recordings struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func New(cfg config.MinIO) (*Recordings, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	log.Info().Str("module", "adapters.minio").Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("recordings storage ready")
	return &Recordings{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

func ObjectName(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s/%s.mp4", objectPrefix, sessionID)
}

func (r *Recordings) Finalize(ctx context.Context, sessionID uuid.UUID) (string, error) {
	params := url.Values{}
	params.Set("response-content-type", "video/mp4")
	u, err := r.client.PresignedGetObject(ctx, r.bucket, ObjectName(sessionID), r.expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ObjectName(sessionID), err)
	}
	return u.String(), nil
}
