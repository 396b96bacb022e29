// Package llm provides a JSON-only text-generation client used by the
// segment translator.
//
// Two wire protocols are supported:
//   - ProviderGemini: the Gemini generateContent REST endpoint with a
//     system_instruction and responseMimeType application/json.
//   - ProviderOpenAI: any OpenAI-compatible chat completions endpoint
//     (OpenAI, OpenRouter) with response_format json_object.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw JSON text.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: strict typed decode that tolerates code fences and prose
// around a single JSON value.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, 3 attempts by default).
// Retry-After headers are honoured. Context cancellation aborts retries
// immediately. The pipeline itself never retries; this transport is the only
// place where backoff lives.
package llm
