// Package app wires configuration into the store, blob storage and
// notification backends shared by the server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/db"
	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/migrations"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
)

// OpenStore opens the configured driver. For Postgres it connects and
// applies pending migrations first.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	opts := store.Options{
		Driver:        cfg.StoreDriver,
		BoltPath:      cfg.BoltPath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}
	var pg *sqlx.DB
	if cfg.StoreDriver == "postgres" {
		var err error
		pg, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		if err := migrations.Apply(pg); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		opts.Postgres = pg
	}
	st, err := store.Open(ctx, opts, services.Schemas()...)
	if err != nil {
		if pg != nil {
			_ = pg.Close()
		}
		return nil, err
	}
	logging.WithComponent("store").Info().Str("driver", cfg.StoreDriver).Msg("store opened")
	return st, nil
}

func BlobStore(ctx context.Context, cfg config.Config) (services.BlobStore, error) {
	if cfg.UploadDriver != "s3" {
		return services.NewLocalBlobStore(cfg.UploadDir, "/uploads")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})
	return services.NewS3BlobStore(client, services.S3Config{
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.S3.Prefix,
		PublicURL: cfg.S3.PublicURL,
	}), nil
}

// Notifier returns the SMTP notifier, or a no-op one when mail is not
// configured.
func Notifier(cfg config.Config) services.Notifier {
	if cfg.Mail.Host == "" || cfg.Mail.NotifyTo == "" {
		logging.WithComponent("mail").Info().Msg("contact notifications disabled")
		return services.NopNotifier{}
	}
	return services.NewSMTPNotifier(services.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		NotifyTo: cfg.Mail.NotifyTo,
	})
}

// Listener returns the revalidation hook, or nil when it is not configured.
func Listener(cfg config.Config) services.ChangeListener {
	if cfg.RevalidateURL == "" {
		return nil
	}
	return services.NewRevalidator(cfg.RevalidateURL, cfg.RevalidateSecret)
}
