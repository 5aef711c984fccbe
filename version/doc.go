// Package version reports the audioscribe build version.
//
// Version and commit are set at link time and fall back to the module's
// embedded VCS information:
//
//	go build -ldflags "-X github.com/kbukum/audioscribe/version.Version=1.2.0" ./cmd/audioscribe
package version
