// Package providers implements the Reviewer interface for each supported
// model backend.
//
// Supported providers: OpenAI (GPT) and Anthropic (Claude). Both share a
// common retry helper with exponential back-off that retries only
// rate-limit responses. Base URLs are overridable via environment
// variables so tests can redirect calls to local httptest servers.
//
// Use [New] to obtain a Reviewer by provider name and model string.
package providers
