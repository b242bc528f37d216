package cli

import (
	"context"
	"fmt"

	"notewise/internal/ai/gateway"
	"notewise/internal/chat"
	"notewise/internal/config"
	"notewise/internal/logger"
	"notewise/internal/retrieval"
	"notewise/internal/secrets"
	"notewise/internal/syncer"
	"notewise/internal/syncstate"
	"notewise/internal/vault"
	"notewise/internal/vectorize"
)

// app wires the configured clients together for one command run.
type app struct {
	cfg     *config.Config
	logCfg  *logger.Config
	log     *logger.Logger
	scanner *vault.Scanner
	store   *syncstate.Store
	gateway *gateway.Client
	index   *vectorize.Client
}

// newApp loads configuration, resolves credentials, and constructs
// the shared clients every command starts from.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if isVerbose() {
		level = "debug"
	}
	logCfg := logger.NewConfig(level)
	log := logger.New("notewise", logCfg)

	if err := resolveCredentials(ctx, cfg, log); err != nil {
		return nil, err
	}

	gatewayClient, err := gateway.New(&gateway.Config{
		AccountID:      cfg.Cloudflare.AccountID,
		GatewayID:      cfg.Cloudflare.GatewayID,
		APIKey:         cfg.Cloudflare.APIKey,
		Model:          cfg.Cloudflare.Model,
		EmbeddingModel: cfg.Cloudflare.EmbeddingModel,
		MaxTokens:      cfg.Cloudflare.MaxTokens,
		Temperature:    cfg.Cloudflare.Temperature,
		Timeout:        cfg.Cloudflare.Timeout,
		MaxAttempts:    cfg.Cloudflare.MaxAttempts,
	}, log)
	if err != nil {
		return nil, err
	}

	indexClient, err := vectorize.New(&vectorize.Config{
		AccountID:   cfg.Cloudflare.AccountID,
		APIKey:      cfg.Cloudflare.VectorizeAPIKey,
		IndexName:   cfg.Cloudflare.IndexName,
		Timeout:     cfg.Cloudflare.Timeout,
		MaxAttempts: cfg.Cloudflare.MaxAttempts,
	}, log)
	if err != nil {
		return nil, err
	}

	scanner := vault.NewScanner(cfg.Vault.Path, log)
	store := syncstate.NewStore(cfg.Sync.StateDir, log)

	return &app{
		cfg:     cfg,
		logCfg:  logCfg,
		log:     log,
		scanner: scanner,
		store:   store,
		gateway: gatewayClient,
		index:   indexClient,
	}, nil
}

// resolveCredentials fills API keys missing from the config from the
// configured secret store. Keys present in config (usually via env or
// .env) win.
func resolveCredentials(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Cloudflare.APIKey != "" && cfg.Cloudflare.VectorizeAPIKey != "" {
		return nil
	}

	store, err := secrets.NewStore(cfg.Secrets, log)
	if err != nil {
		return fmt.Errorf("failed to open secret store: %w", err)
	}

	if cfg.Cloudflare.APIKey == "" {
		if key, err := store.Get(ctx, "cloudflare.apiKey"); err == nil {
			cfg.Cloudflare.APIKey = key
		}
	}
	if cfg.Cloudflare.VectorizeAPIKey == "" {
		if key, err := store.Get(ctx, "cloudflare.vectorizeApiKey"); err == nil {
			cfg.Cloudflare.VectorizeAPIKey = key
		} else if cfg.Cloudflare.APIKey != "" {
			// Fall back to the gateway token for single-token setups.
			cfg.Cloudflare.VectorizeAPIKey = cfg.Cloudflare.APIKey
		}
	}

	log.Debug("credentials resolved: gateway=%s vectorize=%s",
		secrets.Obfuscate(cfg.Cloudflare.APIKey), secrets.Obfuscate(cfg.Cloudflare.VectorizeAPIKey))
	return nil
}

// teardown releases logger listeners registered during the run.
func (a *app) teardown() {
	a.logCfg.Teardown()
}

func (a *app) newEngine() (*syncer.Engine, error) {
	return syncer.New(a.scanner, a.gateway, a.index, a.store, syncer.Options{
		BatchSize:      a.cfg.Sync.BatchSize,
		MaxChunkSize:   a.cfg.Sync.MaxChunkSize,
		IgnoredFolders: a.cfg.Vault.IgnoredFolders,
		Namespace:      a.scanner.Name(),
	}, a.log)
}

func (a *app) newRetriever() (*retrieval.Retriever, error) {
	return retrieval.New(a.gateway, a.index, a.store, a.scanner, retrieval.Options{
		TopK:      a.cfg.Retrieval.TopK,
		MinScore:  a.cfg.Retrieval.MinSimilarityScore,
		Namespace: a.scanner.Name(),
	}, a.log)
}

func (a *app) newSession(withContext bool) (*chat.Session, error) {
	var provider chat.ContextProvider
	if withContext {
		retriever, err := a.newRetriever()
		if err != nil {
			return nil, err
		}
		provider = retriever
	}
	return chat.NewSession(a.gateway, provider, a.log)
}
