package backend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/config"
	"expense-tracker/internal/docstore"
	"expense-tracker/internal/docstore/memory"
	"expense-tracker/internal/docstore/mongo"
	"expense-tracker/internal/docstore/postgres"
	"expense-tracker/internal/docstore/sqlite"
	"expense-tracker/internal/events"
	"expense-tracker/internal/service"
	"expense-tracker/internal/sheets"
	"expense-tracker/internal/storage"
)

// OpenStore connects the document store selected by store.driver and
// prepares its schema.
func OpenStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Infof("using sqlite store at %s", cfg.Store.SQLitePath)
		return sqlite.NewStore(db), nil

	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		store := postgres.NewStore(pool)
		if err := store.Init(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		logger.Info("using postgres store")
		return store, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		store := mongo.NewStore(client, cfg.Store.MongoDatabase)
		if err := store.Init(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("init mongo store: %w", err)
		}
		logger.Infof("using mongo store (database %s)", cfg.Store.MongoDatabase)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Store.Driver)
	}
}

// NewPublisher connects to the broker when amqp.url is set. A broker that
// cannot be reached is logged and replaced by a no-op publisher.
func NewPublisher(cfg config.Config, logger *logrus.Logger) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, logger)
	if err != nil {
		logger.WithError(err).Warn("amqp unavailable, continuing without events")
		return events.NopPublisher{}
	}
	logger.Infof("publishing events to exchange %s", cfg.AMQP.Exchange)
	return publisher
}

// NewObjectStorage returns nil when no bucket is configured.
func NewObjectStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

// NewSheet returns nil when no spreadsheet is configured.
func NewSheet(ctx context.Context, cfg config.Config, logger *logrus.Logger) (service.RowAppender, error) {
	if cfg.Sheets.SpreadsheetID == "" {
		return nil, nil
	}

	client, err := sheets.NewClient(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, err
	}
	logger.Infof("exporting to spreadsheet tab %s", cfg.Sheets.SheetName)
	return client, nil
}
