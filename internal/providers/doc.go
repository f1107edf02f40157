// Package providers implements the AdvisoryClient interface for each
// supported model backend.
//
// Ollama is the default and talks to the local /api/generate endpoint
// through resty. OpenAI (and OpenAI-compatible servers such as LM Studio),
// Anthropic and Gemini go through their official SDKs. All backends share a
// retry helper that backs off on rate limits and server errors, and classify
// HTTP failures into the same error types.
//
// Use [New] to obtain an AdvisoryClient by provider name.
package providers
