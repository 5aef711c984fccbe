// Package util holds small string and size helpers shared by the CLI,
// the server and the media packages.
package util
