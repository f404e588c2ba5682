package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/clinscribe/clinscribe/model"
	"github.com/clinscribe/clinscribe/orchestrator"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, *configPath, logger, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer rt.cleanup()

			mux := http.NewServeMux()
			mux.Handle("POST /v1/generate", generateHandler(rt.service, logger))
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})

			server := &http.Server{
				Addr:              rt.cfg.HTTP.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Serving generation API", "addr", rt.cfg.HTTP.Addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
}

// generateBody is the inbound request shape. Fields arrive already decoded;
// the handler performs no authentication and no document parsing.
type generateBody struct {
	Content             string `json:"content"`
	SystemPrompt        string `json:"system_prompt,omitempty"`
	DocType             string `json:"doc_type"`
	UserID              string `json:"user_id,omitempty"`
	Tier                string `json:"tier,omitempty"`
	WantsJSON           bool   `json:"wants_json,omitempty"`
	Provider            string `json:"provider,omitempty"`
	AllowFallback       *bool  `json:"allow_fallback,omitempty"`
	UseCache            *bool  `json:"use_cache,omitempty"`
	RetryOnParseFailure bool   `json:"retry_on_parse_failure,omitempty"`
}

func generateHandler(service *orchestrator.Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body generateBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.Content == "" || body.DocType == "" {
			http.Error(w, "content and doc_type are required", http.StatusBadRequest)
			return
		}

		// Fallback and caching default on; callers opt out explicitly.
		allowFallback := body.AllowFallback == nil || *body.AllowFallback
		useCache := body.UseCache == nil || *body.UseCache

		result, err := service.Generate(r.Context(), orchestrator.GenerationRequest{
			Content:             body.Content,
			SystemPrompt:        body.SystemPrompt,
			DocType:             body.DocType,
			UserID:              body.UserID,
			Tier:                model.ParseTier(body.Tier),
			WantsJSON:           body.WantsJSON,
			PreferredProvider:   model.ParseProvider(body.Provider),
			AllowFallback:       allowFallback,
			UseCache:            useCache,
			RetryOnParseFailure: body.RetryOnParseFailure,
		})

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			logger.Warn("Generation failed",
				"request_id", result.RequestID,
				"doc_type", body.DocType,
				"error_kind", result.ErrorKind,
				"error", err)
			w.WriteHeader(http.StatusBadGateway)
		}
		if encErr := json.NewEncoder(w).Encode(result); encErr != nil {
			logger.Warn("Failed to encode response", "error", encErr)
		}
	})
}
