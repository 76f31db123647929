package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/config"
	"github.com/samvad-hq/samvad-feed-sampler/internal/hydrator"
	"github.com/samvad-hq/samvad-feed-sampler/internal/logger"
	"github.com/samvad-hq/samvad-feed-sampler/internal/sampler"
	"github.com/samvad-hq/samvad-feed-sampler/internal/storage"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/feeds"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/httpclient"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/publishers"
)

// Harvester represents the sampler runtime. It owns the publishers and the emitted
// store and runs the sample-hydrate-emit pass once or on a fixed interval.
type Harvester struct {
	cfg      *config.Config
	runner   *Runner
	fanout   *publishers.Fanout
	store    storage.Store
	interval time.Duration
	log      logger.Logger
}

// NewHarvester builds a harvester runtime from config.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	identity := httpclient.NewIdentityPicker(nil)
	feedClient := httpclient.NewRestyClient(cfg.FeedTimeout)
	articleClient := httpclient.NewRestyClient(cfg.ArticleTimeout)

	snapshots := feeds.NewHTTPSnapshotter(feedClient, identity, cfg.FeedTimeout, log)
	s := sampler.New(snapshots,
		sampler.WithMaxConsecutiveRejects(cfg.MaxConsecutiveRejects),
		sampler.WithLogger(log),
	)
	h := hydrator.New(hydrator.NewHTMLExtractor(articleClient, identity), hydrator.Options{
		Workers:       cfg.HydrateWorkers,
		Timeout:       cfg.ArticleTimeout,
		RatePerSecond: cfg.HydrateRatePerSecond,
	}, log)

	runner := NewRunner(registrySource(cfg), s, h, fanout, store, RunnerOptions{
		RunTimeout: cfg.RunTimeout,
		Items: ItemOptions{
			Domain:              cfg.ItemDomain,
			MaxContentLength:    cfg.MaxContentLength,
			DescriptionFallback: cfg.DescriptionFallback,
		},
		EnforceMinPostLength: cfg.EnforceMinPostLength,
	}, log)

	return &Harvester{
		cfg:      cfg,
		runner:   runner,
		fanout:   fanout,
		store:    store,
		interval: cfg.RunInterval,
		log:      log,
	}, nil
}

// registrySource prefers a local registry file over the registry URL.
func registrySource(cfg *config.Config) RegistrySource {
	if path := strings.TrimSpace(cfg.RegistryFile); path != "" {
		return RegistryFile(path)
	}
	return feeds.NewRegistryLoader(httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout:    cfg.FeedTimeout,
		RetryCount: 2,
	}), cfg.RegistryURL)
}

// buildFanout loads the publishers file; without one, items stream to stdout.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	var enabled []publishers.PublisherConfig
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		enabled = []publishers.PublisherConfig{{ID: "stdout", Type: publishers.TypeStdout}}
	} else {
		publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, fmt.Errorf("load publishers registry: %w", err)
		}
		enabled = publisherReg.Enabled()
		if len(enabled) == 0 {
			return nil, fmt.Errorf("no publishers configured")
		}
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes one pass with p, then repeats on the configured interval until ctx is
// cancelled. A zero interval runs once.
func (h *Harvester) Run(ctx context.Context, p Parameters) error {
	if h == nil || h.runner == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	h.log.InfoObj("harvester starting", "harvester_state", map[string]any{
		"publishers_count": h.fanout.Size(),
		"run_interval":     h.interval.String(),
		"parameters":       p,
	})

	h.runOnce(ctx, p)
	if h.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			h.runOnce(ctx, p)
		}
	}
}

func (h *Harvester) runOnce(ctx context.Context, p Parameters) {
	start := time.Now()
	report := h.runner.RunOnce(ctx, p)
	h.log.InfoObj("run completed", "run_meta", map[string]any{
		"emitted":    report.Emitted,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// close releases publishers and the store, logging any errors encountered.
func (h *Harvester) close() {
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
