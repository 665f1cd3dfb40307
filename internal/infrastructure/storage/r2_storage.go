// Package storage implementa el almacén de reportes sobre Cloudflare R2 (API compatible con S3).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/pkg/config"
)

var _ inventory.ReportStorage = (*R2Storage)(nil)

// R2Storage sube reportes y firma URLs de descarga temporales.
type R2Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  zerolog.Logger
}

// NewR2Storage construye el cliente S3 apuntando al endpoint de R2 con credenciales estáticas.
func NewR2Storage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*R2Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: R2_BUCKET es obligatorio")
	}
	endpoint := cfg.ResolvedEndpoint()
	if endpoint == "" {
		return nil, errors.New("storage: R2_ACCOUNT_ID o R2_ENDPOINT es obligatorio")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage: credenciales R2 incompletas")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: configuración AWS: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		logger:  logger,
	}, nil
}

// Upload sube body bajo key.
func (s *R2Storage) Upload(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("storage: subir %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("reporte subido")
	return nil
}

// PresignGet devuelve una URL GET firmada válida durante ttl.
func (s *R2Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("storage: firmar %s: %w", key, err)
	}
	return req.URL, nil
}
