package credential

import (
	"context"
	"os"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/util"
)

// Static returns a Provider that always yields key. An empty key behaves
// as missing.
func Static(key string) Provider {
	return staticProvider(key)
}

type staticProvider string

func (s staticProvider) Get(context.Context) (string, error) {
	if s == "" {
		return "", errors.CredentialMissing()
	}
	return string(s), nil
}

// Env returns a Provider that reads the named environment variable on each
// call. Surrounding quotes and whitespace are stripped.
func Env(varName string) Provider {
	if varName == "" {
		varName = DefaultEnvVar
	}
	return envProvider(varName)
}

type envProvider string

func (e envProvider) Get(context.Context) (string, error) {
	key := util.SanitizeEnvValue(os.Getenv(string(e)))
	if key == "" {
		return "", errors.CredentialMissing().WithDetail("source", "env:"+string(e))
	}
	return key, nil
}

// Chain returns a Provider that asks each provider in order and returns the
// first key found. Errors other than CREDENTIAL_MISSING stop the chain.
func Chain(providers ...Provider) Provider {
	return chain(providers)
}

type chain []Provider

func (c chain) Get(ctx context.Context) (string, error) {
	for _, p := range c {
		key, err := p.Get(ctx)
		if err == nil {
			return key, nil
		}
		if !IsMissing(err) {
			return "", err
		}
	}
	return "", errors.CredentialMissing()
}
