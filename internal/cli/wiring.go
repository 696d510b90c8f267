package cli

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/staffassist/internal/adapters/llm"
	"github.com/0xcro3dile/staffassist/internal/adapters/loader"
	"github.com/0xcro3dile/staffassist/internal/adapters/store"
	"github.com/0xcro3dile/staffassist/internal/config"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
	"github.com/0xcro3dile/staffassist/internal/domain/usecases"
)

// backend is what both store adapters provide.
type backend interface {
	ports.BusinessStore
	ports.SessionStore
	ports.DatasetWriter
	Close() error
}

func openStore(cfg config.StoreConfig) (backend, error) {
	switch cfg.Kind {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite", "":
		st, err := store.NewSQLiteStore(cfg.Driver, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store kind: %s", cfg.Kind)
	}
}

func newLLM(ctx context.Context, cfg config.LLMConfig) (ports.LLMService, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiLLMAdapter(ctx, llm.GeminiOptions{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return llm.NewOpenAILLMAdapter(llm.OpenAIOptions{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Schema:  llm.EnvelopeSchema(),
		})
	case "ollama":
		return llm.NewOllamaLLMAdapter(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// newAssistant wires the request pipeline over st.
func (a *app) newAssistant(ctx context.Context, st backend) (*usecases.Assistant, error) {
	model, err := newLLM(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}

	limits := a.cfg.Assistant
	assembler := usecases.NewContextAssembler(st, usecases.AssemblerConfig{
		OrderLimit:        limits.OrderLimit,
		ProductLimit:      limits.ProductLimit,
		ProfileLimit:      limits.ProfileLimit,
		RollupLimit:       limits.RollupLimit,
		LowStockThreshold: limits.LowStockThreshold,
		Location:          a.cfg.GetLocation(),
	}, a.logger.Named("context"))

	enforcer := usecases.NewResponseEnforcer(model, usecases.EnforcerConfig{
		Temperature:     a.cfg.LLM.Temperature,
		MaxOutputTokens: a.cfg.LLM.MaxOutputTokens,
		Timeout:         a.cfg.GetLLMTimeout(),
		Schema:          llm.EnvelopeSchemaJSON(),
	}, a.logger.Named("llm"))

	conversations := usecases.NewConversationStore(st, a.logger.Named("sessions"), nil)

	return usecases.NewAssistant(assembler, enforcer, conversations, a.logger, nil), nil
}

func (a *app) newSeeder(st backend, watcher ports.FileWatcher) *usecases.SeedUseCase {
	return usecases.NewSeedUseCase(loader.NewJSONLoader(), st, watcher, a.logger.Named("seed"))
}
