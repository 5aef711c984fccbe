// Package translate translates and summarizes transcripts with a chat
// completion model.
//
// Both operations make exactly one call. Empty input returns an empty result
// without calling out, and a missing API key fails with CREDENTIAL_MISSING
// before any request is sent.
package translate
