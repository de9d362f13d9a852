// Package llm provides text completion through pluggable providers.
//
// # Supported Providers
//
// Anthropic (Claude):
//   - Default model: claude-sonnet-4-20250514
//   - Requires ANTHROPIC_API_KEY
//
// OpenAI:
//   - Default model: gpt-4-turbo
//   - Requires OPENAI_API_KEY, OPENAI_BASE_URL selects a compatible endpoint
//
// Local (Ollama):
//   - Default model: deepseek-coder:6.7b at http://localhost:11434
//   - Used only when LLM_PROVIDER=local
//
// All providers are langchaingo models behind the Client interface.
//
// # Basic Usage
//
//	client, err := llm.NewFromConfig(llm.ConfigFromEnv(), logger)
//	if errors.Is(err, llm.ErrNoProviderEnabled) {
//	    // fall back to static analysis
//	}
//
//	prompt, _ := llm.RenderPrompt(llm.PromptArchitecture, map[string]any{
//	    "code_content": content,
//	})
//	resp, err := client.Complete(ctx, llm.Request{Prompt: prompt, Temperature: 0.3})
//
// # Retries and Caching
//
// Provider calls are retried three times with exponential backoff
// (100ms, doubling, capped at 5s). Retries stop as soon as the context is
// canceled. Successful completions are kept in an LRU cache keyed by a
// SHA-256 of provider, model, system prompt, prompt and sampling settings.
//
// # Structured Output
//
// CompleteJSON strips markdown fences and falls back to the outermost JSON
// object or array embedded in prose before decoding.
package llm
