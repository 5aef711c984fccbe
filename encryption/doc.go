// Package encryption seals secrets at rest, chiefly the API key kept by the
// file credential store.
//
// Ciphertexts are base64(nonce || sealed) and can be bound to a purpose label
// through associated data.
//
//	enc, err := encryption.New(machineSecret, encryption.WithPurpose("audioscribe/api-key"))
//	sealed, err := enc.Encrypt(apiKey)
//	apiKey, err = enc.Decrypt(sealed)
package encryption
