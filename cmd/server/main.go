// Command server runs the burnout-risk prediction API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/burnout-monitor/internal/api"
	"github.com/ignite/burnout-monitor/internal/awsutil"
	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/config"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/events"
	"github.com/ignite/burnout-monitor/internal/features"
	"github.com/ignite/burnout-monitor/internal/idempotency"
	"github.com/ignite/burnout-monitor/internal/pkg/distlock"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
	"github.com/ignite/burnout-monitor/internal/recommend"
	"github.com/ignite/burnout-monitor/internal/repository/postgres"
	"github.com/ignite/burnout-monitor/internal/service/prediction"
	"github.com/ignite/burnout-monitor/internal/ses"
	"github.com/ignite/burnout-monitor/internal/snowflake"
	"github.com/ignite/burnout-monitor/internal/storage"
)

// activitySource is an ActivitySource that can report its health.
type activitySource interface {
	features.ActivitySource
	Ping(ctx context.Context) error
}

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(true)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx := context.Background()

	// Activity data
	source, db, closeSource, err := openActivitySource(cfg)
	if err != nil {
		log.Fatalf("Failed to open activity source: %v", err)
	}
	defer closeSource()
	log.Printf("[activity] reading from %s", cfg.Activity.Source)

	// AWS
	var awsCfg aws.Config
	if needsAWS(cfg) {
		awsCfg, err = awsutil.LoadConfig(ctx, awsutil.Options{
			Region:  cfg.Storage.AWSRegion,
			Profile: cfg.Storage.GetAWSProfile(),
		})
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
	}

	// Prediction store
	repo, err := storage.New(cfg.Storage, awsCfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("[storage] prediction store: %s", cfg.Storage.Type)

	// Classifier
	cl, catalog, err := buildClassifier(cfg, awsCfg)
	if err != nil {
		log.Fatalf("Failed to initialize classifier: %v", err)
	}
	log.Printf("[classifier] backend=%s model=%s", cfg.Classifier.Backend, cfg.Classifier.ModelVersion)

	composer, err := recommend.NewComposer(recommend.Options{
		WorkloadThreshold: cfg.Recommend.WorkloadThreshold,
		WorkloadResource:  cfg.Recommend.WorkloadResource,
	})
	if err != nil {
		log.Fatalf("Failed to build recommendation composer: %v", err)
	}

	// Redis: idempotency records and locks
	var redisClient *redis.Client
	var idem prediction.IdempotencyStore
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		idem = idempotency.NewRedisStore(redisClient, cfg.Redis.IdempotencyTTL())
		log.Println("[redis] idempotency records and locks enabled")
	} else {
		log.Println("[redis] not configured; idempotency keys rely on the prediction store only")
	}

	observers, closeObservers := buildObservers(ctx, cfg, awsCfg)
	defer closeObservers()

	svc := prediction.NewService(prediction.Deps{
		Extractor:   features.NewExtractor(source),
		Classifier:  cl,
		Composer:    composer,
		Repo:        repo,
		Idempotency: idem,
		Locks:       distlock.NewFactory(redisClient, db, cfg.Redis.LockTTL()),
		Observers:   observers,
	}, prediction.WithDefaultModelVersion(cfg.Classifier.ModelVersion))

	health := api.NewHealthChecker(
		api.Dependency{Name: "activity", Critical: true, Ping: source.Ping, SlowAfter: time.Second},
		api.Dependency{Name: "predictions", Critical: true, Ping: repo.Ping, SlowAfter: time.Second},
		api.Dependency{Name: "redis", Ping: redisPing(redisClient), SlowAfter: 500 * time.Millisecond},
		api.Dependency{Name: "classifier", Ping: catalogPing(catalog), SlowAfter: 2 * time.Second, Timeout: cfg.Classifier.Timeout()},
	)

	server := api.NewServer(cfg.Server, api.NewHandlers(svc, catalog), health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func openActivitySource(cfg *config.Config) (activitySource, *sql.DB, func(), error) {
	switch cfg.Activity.Source {
	case "snowflake":
		sfCfg := snowflake.Config{
			Account:   cfg.Snowflake.Account,
			User:      cfg.Snowflake.User,
			Password:  cfg.Snowflake.Password,
			Database:  cfg.Snowflake.Database,
			Schema:    cfg.Snowflake.Schema,
			Warehouse: cfg.Snowflake.Warehouse,
		}
		if cfg.Snowflake.ConnectionString != "" {
			sfCfg = snowflake.ParseConnectionString(cfg.Snowflake.ConnectionString)
			if cfg.Snowflake.Password != "" {
				sfCfg.Password = cfg.Snowflake.Password
			}
		}
		wh, err := snowflake.Open(sfCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return wh, nil, func() { wh.Close() }, nil

	case "postgres", "":
		if cfg.Activity.DatabaseURL == "" {
			return nil, nil, nil, fmt.Errorf("activity.database_url (DATABASE_URL) is required")
		}
		db, err := sql.Open("postgres", cfg.Activity.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		return postgres.NewActivityRepo(db), db, func() { db.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown activity source %q", cfg.Activity.Source)
	}
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Storage.Type == "dynamodb" ||
		cfg.Storage.ArchiveBucket != "" ||
		cfg.Classifier.Backend == "bedrock"
}

// classifierBackend is both a Classifier and a model Catalog.
type classifierBackend interface {
	classifier.Classifier
	classifier.Catalog
}

func buildClassifier(cfg *config.Config, awsCfg aws.Config) (classifier.Classifier, classifier.Catalog, error) {
	var backend classifierBackend
	switch cfg.Classifier.Backend {
	case "bedrock":
		if cfg.Classifier.BedrockModelID == "" {
			return nil, nil, fmt.Errorf("classifier.bedrock_model_id is required for the bedrock backend")
		}
		bcfg := awsCfg.Copy()
		bcfg.Region = cfg.Classifier.BedrockRegion
		backend = classifier.NewBedrockClientFromConfig(bcfg, cfg.Classifier.BedrockModelID)
	case "http", "":
		oauth := cfg.Classifier.OAuth2
		hc := classifier.HTTPConfig{
			BaseURL:    cfg.Classifier.BaseURL,
			Timeout:    cfg.Classifier.Timeout(),
			MaxRetries: cfg.Classifier.MaxRetries,
		}
		if oauth.Enabled() {
			hc.TokenURL = oauth.TokenURL
			hc.ClientID = oauth.ClientID
			hc.ClientSecret = oauth.ClientSecret
			hc.Scopes = oauth.Scopes
			log.Println("[classifier] OAuth2 client credentials enabled")
		}
		backend = classifier.NewHTTPClient(hc)
	default:
		return nil, nil, fmt.Errorf("unknown classifier backend %q", cfg.Classifier.Backend)
	}
	return backend, backend, nil
}

func buildObservers(ctx context.Context, cfg *config.Config, awsCfg aws.Config) ([]prediction.Observer, func()) {
	var observers []prediction.Observer
	var closers []func()

	if cfg.Storage.ArchiveBucket != "" {
		observers = append(observers, storage.NewS3ArchiverFromConfig(awsCfg, cfg.Storage.ArchiveBucket))
		log.Printf("[archive] archiving predictions to s3://%s", cfg.Storage.ArchiveBucket)
	}

	if cfg.Kafka.Enabled() {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Printf("[events] Kafka disabled: %v", err)
		} else {
			observers = append(observers, pub)
			closers = append(closers, func() { pub.Close() })
			log.Printf("[events] publishing %s to %s", events.EventPredictionCreated, cfg.Kafka.Topic)
		}
	}

	if cfg.Alerts.Enabled {
		alertCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
			Region:    cfg.Alerts.Region,
			Profile:   cfg.Storage.GetAWSProfile(),
			AccessKey: cfg.Alerts.AccessKey,
			SecretKey: cfg.Alerts.SecretKey,
		})
		if err != nil {
			log.Printf("[alerts] SES alerts disabled: %v", err)
		} else {
			observers = append(observers, ses.NewAlertNotifierFromConfig(alertCfg, cfg.Alerts.From, cfg.Alerts.To, domain.RiskLevel(cfg.Alerts.MinLevel)))
			log.Printf("[alerts] e-mailing %d recipient(s) at %s risk and above", len(cfg.Alerts.To), cfg.Alerts.MinLevel)
		}
	}

	return observers, func() {
		for _, c := range closers {
			c()
		}
	}
}

func redisPing(c *redis.Client) func(context.Context) error {
	if c == nil {
		return nil
	}
	return func(ctx context.Context) error { return c.Ping(ctx).Err() }
}

func catalogPing(c classifier.Catalog) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := c.ListModels(ctx)
		return err
	}
}
