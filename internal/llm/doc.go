// Package llm is the model side of the explain command: a Provider interface,
// the conversation types and a registry of backends.
//
// explain hands a model the bounded cluster report, never the raw log. A
// backend registers itself from init, the way database/sql drivers do, so
// the command only imports it for its side effect:
//
//	import _ "github.com/bimmerbailey/logsift/internal/llm/ollama"
//
//	provider, err := llm.NewProvider(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	if err := provider.Heartbeat(ctx); err != nil {
//	    return err // wraps llm.ErrProviderUnavailable
//	}
//	resp, err := provider.Stream(ctx, messages, nil, func(text string) error {
//	    _, err := fmt.Print(text)
//	    return err
//	})
//
// Configuration lives under the llm key of ~/.logsift.yaml (or LOGSIFT_LLM_*):
//
//	llm:
//	  provider: ollama
//	  temperature: 0
//	  max_tokens: 1024
//	  ollama:
//	    host: http://localhost:11434
//	    model: llama3.2
//	    keep_alive: 5m
//	    num_ctx: 8192
//
// Backends wrap their failures in ErrProviderUnavailable, ErrModelNotFound
// or ErrContextCanceled so callers can use errors.Is without knowing which
// backend is configured.
package llm
