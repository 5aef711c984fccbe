// Package llm provides a config-driven chat completion adapter built on the
// httpclient package.
//
// The adapter works with any chat API via the Dialect pattern, similar to
// how database/sql works with driver packages.
//
// # Architecture
//
//   - Universal types: [CompletionRequest], [CompletionResponse], [Message], [Usage]
//   - [Dialect] interface: maps universal types to and from a provider's JSON format
//   - [Adapter]: composes an httpclient.Client with a Dialect
//   - Dialect registry: [RegisterDialect] / [GetDialect] for config-driven selection
//   - Convenience helper: [Complete]
//
// # Usage
//
// Import a dialect package for side-effect registration, then create an adapter:
//
//	import (
//	    "github.com/kbukum/audioscribe/llm"
//	    _ "github.com/kbukum/audioscribe/llm/openai" // registers "openai"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "gpt-4-turbo",
//	    Auth:    httpclient.BearerTokenAuth(credential.TokenSource(creds)),
//	})
//
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hello!"}},
//	})
//
// Errors are AppErrors: a missing credential stays CREDENTIAL_MISSING, 401/403
// becomes UNAUTHORIZED and any other failure SERVICE_ERROR.
package llm
