package main

import (
	"context"
	"fmt"
	"os"

	"deepchat/internal/api"
	"deepchat/internal/config"
	"deepchat/internal/document"
	"deepchat/internal/logger"
	"deepchat/internal/service/ai"
	"deepchat/internal/service/assistant"
	"deepchat/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.ConfigPathEnv))
	if err != nil {
		boot := logger.New(config.Default().Log)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log)
	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	router, st, err := newRouter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := cfg.BasicConfig.ServerAddress
	log.Info().Str("addr", addr).Str("provider", cfg.Model.Provider).Str("model", cfg.Model.Model).Msg("server starting")
	return router.Run(addr)
}

// newRouter builds the store, model client and routes. The caller owns the returned store.
func newRouter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gin.Engine, store.Store, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store %s: %w", cfg.BasicConfig.Store, err)
	}
	log.Info().Str("store", cfg.BasicConfig.Store).Msg("store ready")

	if cfg.Model.APIKey == "" {
		log.Warn().Str("env", config.CredentialEnv(cfg.Model.Provider)).Msg("model api key not set; chat requests will fail")
	}
	chatModel, err := ai.NewChatModel(ctx, cfg.Model)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("init chat model: %w", err)
	}
	client := ai.NewClient(chatModel, cfg.Model.Model, *cfg.Model.MaxRetries, ai.WithLogger(log))

	extractor, err := document.NewExtractor(ctx, cfg.BasicConfig.MaxFileChars)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("init document extractor: %w", err)
	}

	assistantService := assistant.NewService(st, st, extractor, client, log)
	handlers := api.NewHandler(assistantService, cfg.BasicConfig.MaxUploadBytes)

	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(log), api.CORS())
	handlers.RegisterRoutes(router)
	return router, st, nil
}
