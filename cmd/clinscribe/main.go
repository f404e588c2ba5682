// Package main provides the clinscribe binary entry point.
// Clinscribe is the AI generation orchestration service for clinical
// documentation: tiered model selection, provider fallback, premium quota
// tracking, and a content-addressed response cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/clinscribe/clinscribe/cache"
	"github.com/clinscribe/clinscribe/config"
	"github.com/clinscribe/clinscribe/llm"
	"github.com/clinscribe/clinscribe/llm/providers"
	"github.com/clinscribe/clinscribe/model"
	"github.com/clinscribe/clinscribe/orchestrator"
	"github.com/clinscribe/clinscribe/quota"
)

const (
	Version = "0.1.0"
	appName = "clinscribe"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     appName,
		Short:   "AI generation orchestration for clinical documentation",
		Version: Version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newGenerateCmd(&configPath))

	return root
}

// runtime holds the wired service and its teardown.
type runtime struct {
	service *orchestrator.Service
	cfg     *config.Config
	cleanup func()
}

// buildRuntime wires adapters, stores, tracker, cache, and the facade from
// configuration. Clients are constructed once here and passed by reference;
// nothing is lazily initialized in module state.
func buildRuntime(ctx context.Context, configPath string, logger *slog.Logger, reg prometheus.Registerer) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	adapters := []llm.Adapter{
		providers.NewCloud(providers.CloudConfig{
			APIKey:  cfg.Providers.Cloud.APIKey,
			BaseURL: cfg.Providers.Cloud.BaseURL,
		}),
		providers.NewSelfHosted(providers.SelfHostedConfig{
			BaseURL:             cfg.Providers.SelfHosted.BaseURL,
			Model:               cfg.Providers.SelfHosted.Model,
			GatewayClientID:     cfg.Providers.SelfHosted.GatewayClientID,
			GatewayClientSecret: cfg.Providers.SelfHosted.GatewayClientSecret,
		}),
	}

	client := llm.NewClient(adapters,
		llm.WithTimeout(cfg.Providers.Timeout),
		llm.WithLogger(logger))

	var (
		counterStore quota.CounterStore
		roles        quota.RoleLookup
		cacheStore   cache.Store
		cleanup      = func() {}
	)

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		cleanup = nc.Close

		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create jetstream context: %w", err)
		}

		counterStore, err = quota.NewKVCounterStore(ctx, js)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("open counters bucket: %w", err)
		}

		roles, err = quota.NewKVRoleLookup(ctx, js)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("open profiles bucket: %w", err)
		}

		cacheStore, err = cache.NewKVStore(ctx, js)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("open cache bucket: %w", err)
		}
	} else {
		logger.Warn("No NATS URL configured, using in-memory stores")
		counterStore = quota.NewMemoryCounterStore()
		roles = quota.NewStaticRoles()
		cacheStore = cache.NewMemoryStore()
	}

	tracker := quota.NewTracker(counterStore, roles,
		quota.WithLimits(quota.Limits{
			User:  cfg.Quota.UserDailyLimit,
			Admin: cfg.Quota.AdminDailyLimit,
		}),
		quota.WithFailOpen(cfg.Quota.FailOpen),
		quota.WithLogger(logger))

	selector := model.NewSelector(cfg.TierParams())

	opts := []orchestrator.ServiceOption{
		orchestrator.WithMetrics(orchestrator.NewMetrics(reg)),
		orchestrator.WithLogger(logger),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, orchestrator.WithCache(
			cache.New(cacheStore,
				cache.WithTTL(cfg.Cache.TTL),
				cache.WithLogger(logger))))
	}

	return &runtime{
		service: orchestrator.NewService(client, selector, tracker, opts...),
		cfg:     cfg,
		cleanup: cleanup,
	}, nil
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var (
		systemPrompt  string
		docType       string
		userID        string
		tier          string
		provider      string
		wantsJSON     bool
		allowFallback bool
		useCache      bool
	)

	cmd := &cobra.Command{
		Use:   "generate [content]",
		Short: "Run one generation from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			rt, err := buildRuntime(ctx, *configPath, logger, nil)
			if err != nil {
				return err
			}
			defer rt.cleanup()

			result, err := rt.service.Generate(ctx, orchestrator.GenerationRequest{
				Content:           args[0],
				SystemPrompt:      systemPrompt,
				DocType:           docType,
				UserID:            userID,
				Tier:              model.ParseTier(tier),
				WantsJSON:         wantsJSON,
				PreferredProvider: model.ParseProvider(provider),
				AllowFallback:     allowFallback,
				UseCache:          useCache,
			})
			if err != nil {
				return err
			}

			out, marshalErr := json.MarshalIndent(result, "", "  ")
			if marshalErr != nil {
				return marshalErr
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&systemPrompt, "system", "", "feature instructions prepended to the content")
	cmd.Flags().StringVar(&docType, "doc-type", "note", "document type tag")
	cmd.Flags().StringVar(&userID, "user", "", "caller identity for quota tracking")
	cmd.Flags().StringVar(&tier, "tier", model.TierStandard.String(), "generation tier (premium or standard)")
	cmd.Flags().StringVar(&provider, "provider", model.ProviderCloud.String(), "preferred provider (cloud or selfhosted)")
	cmd.Flags().BoolVar(&wantsJSON, "json", false, "expect and validate a JSON payload")
	cmd.Flags().BoolVar(&allowFallback, "fallback", true, "allow cross-provider fallback")
	cmd.Flags().BoolVar(&useCache, "cache", false, "serve and store via the response cache")

	return cmd
}
