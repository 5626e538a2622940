package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	adminservice "docverify/internal/admin/service"
	adminstore "docverify/internal/admin/store"
	"docverify/internal/auth/revocation"
	"docverify/internal/certificate"
	"docverify/internal/lookup"
	"docverify/internal/platform/config"
	"docverify/internal/platform/metrics"
	"docverify/internal/platform/postgres"
	platformredis "docverify/internal/platform/redis"
	ratelimit "docverify/internal/ratelimit/middleware"
	"docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/store/bucket"
	"docverify/internal/storage"
	verificationservice "docverify/internal/verification/service"
	verificationstore "docverify/internal/verification/store"
	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publisher"
	"docverify/pkg/platform/audit/publishers/buffered"
	"docverify/pkg/platform/audit/sink/kafka"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	auditpostgres "docverify/pkg/platform/audit/store/postgres"
	"docverify/pkg/platform/audit/worker"
	"docverify/pkg/platform/circuit"
)

const bucketSweepInterval = time.Minute

// infra holds the optional external connections. Either may be nil.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil && cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	log.Info("infrastructure ready",
		"postgres", db != nil,
		"redis", rdb != nil,
	)
	return &infra{db: db, redis: rdb}, nil
}

func (i *infra) Health(ctx context.Context) error {
	if i.db != nil {
		if err := i.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (i *infra) Close() {
	if i.db != nil {
		_ = i.db.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

// verificationStore is served by both the lifecycle and the lookup services.
type verificationStore interface {
	verificationservice.Store
	lookup.Store
}

type stores struct {
	admins        adminservice.AdminStore
	verifications verificationStore
	certificates certificate.Store
	audit        audit.Store
	revocations  revocation.List
}

// Postgres backs every store when configured; Redis takes over the
// revocation list when present.
func newStores(in *infra) stores {
	var s stores
	if in.db != nil {
		s.admins = adminstore.NewPostgres(in.db)
		s.verifications = verificationstore.NewPostgres(in.db)
		s.certificates = certificate.NewPostgresStore(in.db)
		s.audit = auditpostgres.New(in.db)
		s.revocations = revocation.NewPostgresTRL(in.db)
	} else {
		s.admins = adminstore.NewInMemory()
		s.verifications = verificationstore.NewInMemory()
		s.certificates = certificate.NewInMemoryStore()
		s.audit = auditmemory.NewInMemoryStore()
		s.revocations = revocation.NewInMemoryTRL()
	}
	if in.redis != nil {
		s.revocations = revocation.NewRedisTRL(in.redis.Client)
	}
	return s
}

// newDocumentStorage returns the configured backend and, for local disk,
// the directory to serve under /uploads/.
func newDocumentStorage(ctx context.Context, cfg config.StorageConfig, baseURL string) (storage.Store, string, error) {
	switch cfg.Driver {
	case "s3":
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		local, err := storage.NewLocal(cfg.UploadDir, baseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	}
}

type auditing struct {
	publisher *publisher.Publisher
	worker    *worker.Worker
	sink      *kafka.Sink
}

func newAuditing(ctx context.Context, cfg config.Config, store audit.Store, log *slog.Logger) (*auditing, error) {
	a := &auditing{}
	opts := []publisher.Option{publisher.WithLogger(log)}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		a.sink = sink
		opts = append(opts, publisher.WithSink(sink))
	}

	var buf *buffered.RingBuffer
	if cfg.Audit.Async {
		buf = buffered.NewRingBuffer(cfg.Audit.BufferSize)
		opts = append(opts, publisher.WithBuffer(buf))
	}

	a.publisher = publisher.NewPublisher(store, opts...)
	if buf != nil {
		a.worker = worker.NewWorker(buf, a.publisher.Fanout(),
			worker.WithInterval(cfg.Audit.FlushInterval),
			worker.WithBatchSize(cfg.Audit.BatchSize),
			worker.WithLogger(log),
		)
	}
	return a, nil
}

func (a *auditing) Close() {
	if a.sink != nil {
		a.sink.Close()
	}
}

// resolveIntakeOwner loads the admin that owns public self-service uploads.
// An empty id disables the route and yields the zero actor.
func resolveIntakeOwner(ctx context.Context, raw string, admins adminservice.AdminStore, log *slog.Logger) (id.Actor, error) {
	if raw == "" {
		log.Info("public document upload disabled: no intake owner configured")
		return id.Actor{}, nil
	}
	adminID, err := id.ParseAdminID(raw)
	if err != nil {
		return id.Actor{}, fmt.Errorf("PUBLIC_INTAKE_ADMIN_ID: %w", err)
	}
	owner, err := admins.FindByID(ctx, adminID)
	if err != nil {
		return id.Actor{}, fmt.Errorf("load intake owner %s: %w", adminID, err)
	}
	if !owner.IsActive {
		return id.Actor{}, errors.New("intake owner account is inactive")
	}
	return owner.Actor(), nil
}

// newRateLimiter uses Redis when available with the in-memory store as the
// breaker fallback. The returned memory store is swept periodically.
func newRateLimiter(cfg config.RateLimitConfig, in *infra, m *metrics.Metrics, log *slog.Logger) (*ratelimit.Middleware, *bucket.InMemoryBucketStore) {
	memory := bucket.NewInMemoryBucketStore()
	opts := []ratelimit.Option{
		ratelimit.WithDisabled(cfg.Disabled),
		ratelimit.WithMetrics(m),
		ratelimit.WithPolicies(map[models.EndpointClass]models.Policy{
			models.ClassAuth:   {Limit: cfg.AuthLimit, Window: cfg.AuthWindow},
			models.ClassLookup: {Limit: cfg.LookupLimit, Window: cfg.LookupWindow},
			models.ClassUpload: {Limit: cfg.UploadLimit, Window: cfg.UploadWindow},
		}),
	}
	if in.redis == nil {
		return ratelimit.New(memory, log, opts...), memory
	}
	opts = append(opts, ratelimit.WithFallback(memory, circuit.New("ratelimit-redis")))
	return ratelimit.New(bucket.NewRedisBucketStore(in.redis.Client), log, opts...), memory
}

func sweepBuckets(ctx context.Context, buckets *bucket.InMemoryBucketStore, log *slog.Logger) {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := buckets.Sweep(); n > 0 {
				log.Debug("swept idle rate limit buckets", "count", n)
			}
		}
	}
}
