package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"

	"fabula/pkg/inference"
	"fabula/pkg/server"
	"fabula/pkg/story"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	inf, model := buildInferencer()

	cfg := story.DefaultConfig()
	cfg.Model = model
	if ttl := os.Getenv("FABULA_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatal("invalid FABULA_CACHE_TTL", "value", ttl, "error", err)
		}
		cfg.CacheTTL = d
	}
	if timeout := os.Getenv("FABULA_CALL_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			log.Fatal("invalid FABULA_CALL_TIMEOUT", "value", timeout, "error", err)
		}
		cfg.CallTimeout = d
	}

	describer := story.NewDescriber(inf, cfg)
	composer := story.NewComposer(inf, cfg)

	srv := server.NewServer(ctx, describer, composer)
	srv.Echo.Logger.SetLevel(gommon.INFO)

	addr := ":8080"
	if envAddr := os.Getenv("PORT"); envAddr != "" {
		addr = ":" + envAddr
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatal("shutdown failed", "error", err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
	}
	<-finishedShutDown
}

// buildInferencer picks the completion provider from the environment.
// Grok and Gemini keys take precedence over OpenAI; no key at all is fatal,
// the process must not come up without a credential.
func buildInferencer() (inference.Inferencer, string) {
	if key := os.Getenv("GROK_API_KEY"); key != "" {
		model := os.Getenv("GROK_MODEL")
		inf := inference.NewGrokInferencer(key, model)
		log.Info("using grok backend")
		return inf, model
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		model := os.Getenv("GEMINI_MODEL")
		inf, err := inference.NewGeminiInferencer(key, model)
		if err != nil {
			log.Fatal("gemini client init failed", "error", err)
		}
		log.Info("using gemini backend")
		return inf, model
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		log.Fatal("no API key found, set OPENAI_API_KEY (or GROK_API_KEY / GEMINI_API_KEY)")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	log.Info("using openai backend", "model", model)
	return inference.NewOpenAIInferencer(key, model), model
}
