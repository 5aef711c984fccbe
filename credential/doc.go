// Package credential supplies the remote API key to the pipeline.
//
// A Provider is read once per network call; the pipeline never writes.
// A missing key is reported as a CREDENTIAL_MISSING AppError, which the
// orchestrator turns into its CredentialRequired state without touching
// the network.
//
// Providers:
//
//   - Static: a fixed key, for tests and embedding
//   - Env: an environment variable, OPENAI_API_KEY by default
//   - FileStore: a key file encrypted with ChaCha20-Poly1305
//   - Chain: the first provider that yields a key
package credential
