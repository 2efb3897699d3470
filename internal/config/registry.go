package config

import (
	"errors"
	"fmt"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/barriocredito/voxpedido/pkg/provider/llm"
	"github.com/barriocredito/voxpedido/pkg/provider/llm/anyllm"
	llmopenai "github.com/barriocredito/voxpedido/pkg/provider/llm/openai"
	"github.com/barriocredito/voxpedido/pkg/provider/stt"
	sttopenai "github.com/barriocredito/voxpedido/pkg/provider/stt/openai"
	"github.com/barriocredito/voxpedido/pkg/provider/stt/whisperhttp"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	stt map[string]func(ProviderEntry) (stt.Provider, error)
	llm map[string]func(ProviderEntry) (llm.Provider, error)
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stt: make(map[string]func(ProviderEntry) (stt.Provider, error)),
		llm: make(map[string]func(ProviderEntry) (llm.Provider, error)),
	}
}

// DefaultRegistry returns a [Registry] with every built-in provider factory
// registered: "openai" and "whisperhttp" for transcription, "openai" native
// plus the any-llm-go backend names for completion.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterSTT("openai", func(e ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(e.BaseURL))
		}
		if e.Model != "" {
			opts = append(opts, sttopenai.WithModel(e.Model))
		}
		if e.Language != "" {
			opts = append(opts, sttopenai.WithLanguage(e.Language))
		}
		if e.Timeout > 0 {
			opts = append(opts, sttopenai.WithTimeout(e.Timeout))
		}
		return sttopenai.New(e.APIKey, opts...)
	})
	r.RegisterSTT("whisperhttp", func(e ProviderEntry) (stt.Provider, error) {
		var opts []whisperhttp.Option
		if e.Model != "" {
			opts = append(opts, whisperhttp.WithModel(e.Model))
		}
		if e.Language != "" {
			opts = append(opts, whisperhttp.WithLanguage(e.Language))
		}
		if e.Timeout > 0 {
			opts = append(opts, whisperhttp.WithTimeout(e.Timeout))
		}
		return whisperhttp.New(e.BaseURL, opts...)
	})

	r.RegisterLLM("openai", func(e ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(e.BaseURL))
		}
		if e.Timeout > 0 {
			opts = append(opts, llmopenai.WithTimeout(e.Timeout))
		}
		return llmopenai.New(e.APIKey, e.Model, opts...)
	})
	for _, name := range []string{"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"} {
		name := name
		r.RegisterLLM(name, func(e ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	return r
}

// RegisterSTT registers an STT provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterLLM registers a completion provider factory under name.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// CreateSTT instantiates an STT provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] when no factory matches.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateLLM instantiates a completion provider using the factory registered
// under entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
