package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	lgcfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	httpapi "personastats/internal/api/http"
	"personastats/internal/aggregate"
	"personastats/internal/chain"
	"personastats/internal/checkpoint"
	"personastats/internal/config"
	"personastats/internal/dedupe"
	"personastats/internal/dispatch"
	"personastats/internal/handlers"
	"personastats/internal/ledger"
	"personastats/internal/metrics"
	"personastats/internal/pubsub/nats"
	"personastats/internal/security"
	"personastats/internal/service"
	"personastats/internal/store"
	"personastats/internal/stores/clickhouse"
	"personastats/internal/stores/redis"
)

type Container struct {
	app *App

	// infra
	redis  *redis.Client
	ch     *clickhouse.Conn
	writer *clickhouse.Writer
	nc     *nats.Client
	meta   *chain.ContractMetadataReader

	// dedupe
	deduper *dedupe.MemoryDedupe

	// services
	svc *service.IndexerService

	cleanupF func()

	// servers
	httpSrv *httpapi.Server

	// metrics
	profiler *pyroscope.Profiler
}

func (c *Container) Start() error {
	return c.app.Start()
}

// Service exposes the indexer for the block feed driving ProcessBatch
func (c *Container) Service() *service.IndexerService {
	return c.svc
}

func (c *Container) Stop(ctx context.Context) error {
	if err := c.app.Shutdown(ctx); err != nil {
		return fmt.Errorf("app shutdown is failed, error=%w", err)
	}

	if c.cleanupF != nil {
		c.cleanupF()
	}
	return nil
}

// Construct image app
func Build(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	lg := logger.New(lgcfg.LoggerCfg{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	lg.Infof("Successfully initialize logger")

	profiler, err := metrics.InitPProf(&metrics.PProfConfig{
		Enabled:       cfg.Metrics.Pyroscope.Enabled,
		AppInstanceID: cfg.App.InstanceID,
		AppName:       cfg.Metrics.Pyroscope.AppName,
		ServerAddr:    cfg.Metrics.Pyroscope.ServerAddr,
		AuthToken:     cfg.Metrics.Pyroscope.AuthToken,
		Tags:          cfg.Metrics.Pyroscope.Tags,
	})
	if err != nil {
		lg.Panicf("Pyroscope initialize failed: %v", err)
	}
	if profiler != nil {
		lg.Infof("Successfully initialize Pyroscope to %s as %s", cfg.Metrics.Pyroscope.ServerAddr, cfg.Metrics.Pyroscope.AppName)
	}

	// Redis client
	rdb, err := redis.New(ctx, cfg.Stores.Redis)
	if err != nil {
		lg.Panicf("Failed to initialize redis client: %v", err)
	}
	lg.Infof("Successfully initialize redis client, addr=%s", cfg.Stores.Redis.Addr)

	// ClickHouse client
	ch, err := clickhouse.New(ctx, &cfg.Stores.ClickHouse)
	if err != nil {
		lg.Panicf("Failed to initialize clickhouse client: %v", err)
	}
	url := strings.Split(cfg.Stores.ClickHouse.DSN, "?")
	lg.Infof("Successfully initialize clickhouse client, url=%s", url[0])

	// ClickHouse event journal writer
	chWriter := clickhouse.NewWriter(lg, ch.Native, cfg.Stores.ClickHouse)
	lg.Infof("Successfully initialize clickhouse writer")

	// NATS broadcaster
	natsCl, err := nats.New(lg, &cfg.PubSub.NATS)
	if err != nil || natsCl == nil {
		lg.Panicf("Failed to initialize nats client: %v", err)
	}
	lg.Infof("Successfully initialize nats client, url=%s", cfg.PubSub.NATS.URL)

	// Dedupe
	deduper := dedupe.NewMemoryDedupe(lg, cfg.Dedupe.TTL, cfg.Dedupe.JanitorEvery)
	lg.Infof("Successfully initialize Deduper, ttl=%s", cfg.Dedupe.TTL)

	// Chain decode layer
	contracts, err := chain.NewContracts(cfg.Chain.Contracts)
	if err != nil {
		lg.Panicf("Failed to initialize contract registry: %v", err)
	}
	decoder := chain.NewDecoder(lg)

	var meta *chain.ContractMetadataReader
	var metaReader chain.MetadataReader
	if cfg.Chain.Metadata.RPCURL != "" {
		meta, err = chain.NewContractMetadataReader(
			cfg.Chain.Metadata.RPCURL,
			cfg.Chain.Metadata.Contract,
			cfg.Chain.Metadata.Timeout,
		)
		if err != nil {
			lg.Panicf("Failed to initialize metadata reader: %v", err)
		}
		metaReader = meta
		lg.Infof("Successfully initialize metadata reader, rpc=%s", cfg.Chain.Metadata.RPCURL)
	}

	// Handler registry + dispatcher
	registry := dispatch.NewRegistry()
	handlers.Register(registry)

	st := store.NewMemory(lg)
	ldg := ledger.New(lg)

	dispatcher, err := dispatch.New(dispatch.Deps{
		Log:       lg,
		Registry:  registry,
		Decoder:   decoder,
		Contracts: contracts,
		Store:     st,
		Ledger:    ldg,
		Meta:      metaReader,
		Deduper:   deduper,
		Journal:   chWriter,
	})
	if err != nil {
		lg.Panicf("Failed to initialize dispatcher: %v", err)
	}
	lg.Infof("Successfully initialize dispatcher, roles=%d", len(cfg.Chain.Contracts))

	// Aggregation engine
	engine := aggregate.New(lg, st)

	// Checkpoint
	cp := checkpoint.NewRedisCheckpoint(rdb.Client, cfg.Checkpoint.Key)

	// Service layer
	svc := service.NewIndexerService(lg, dispatcher, engine, st, natsCl, cp)
	svc.SetJournalHealth(chWriter)

	var verifier *security.RS256Verifier
	if cfg.Security.JWT.Enabled {
		if verifier, err = security.NewRS256Verifier(&cfg.Security.JWT); err != nil {
			lg.Panicf("Failed to initialize JWT verifier: %v", err)
		}
		lg.Infof("Successfully initialize JWT verifier")
	}

	// HTTP server
	httpSrv := httpapi.NewServer(&httpapi.ServerDeps{
		Logger:    lg,
		Cfg:       cfg,
		Verifier:  verifier,
		RdbClient: rdb,
		Svc:       svc,
	})
	lg.Infof("Successfully initialize HTTP server")

	c := &Container{
		app:      NewApp(lg, httpSrv),
		redis:    rdb,
		ch:       ch,
		writer:   chWriter,
		nc:       natsCl,
		meta:     meta,
		deduper:  deduper,
		svc:      svc,
		httpSrv:  httpSrv,
		profiler: profiler,
	}

	cleanupF := func() {
		ctxClean, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if c.profiler != nil {
			if err := c.profiler.Stop(); err != nil {
				lg.Errorf("Failed to stop profiler: %v", err)
			}
		}

		if err := httpSrv.Shutdown(ctxClean); err != nil {
			lg.Errorf("Failed to shutdown by cleanupF HTTP server: %v", err)
		}

		if err := chWriter.Close(ctxClean); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse writer: %v", err)
		}

		if err := ch.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse client: %v", err)
		}

		if err := natsCl.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF nats client: %v", err)
		}

		if err := rdb.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF redis client: %v", err)
		}

		deduper.Close()
		if meta != nil {
			meta.Close()
		}

		lg.Infof("Successfully cleaned up dependency")
	}

	lg.Infof("Successfully initialize Wiring")
	return c, cleanupF, nil
}
