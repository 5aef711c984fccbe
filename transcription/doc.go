// Package transcription defines the provider interface and common types
// for speech-to-text backends.
//
// It follows the provider pattern with a pluggable registry for
// runtime-selectable backends.
//
// # Backends
//
//   - transcription/openai: OpenAI-compatible /audio/transcriptions endpoint
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(openai.ProviderName, openai.Factory(creds, log))
//	p, _ := reg.Create(openai.ProviderName, nil)
//	seg, err := transcription.Transcribe(ctx, p, c, transcription.Options{Language: "es"})
package transcription
