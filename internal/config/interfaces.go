package config

import "context"

// SecretProvider resolves _SSM_PARAM pointers to plaintext values.
type SecretProvider interface {
	// GetParametersBatch returns plaintext values for the keys it could
	// resolve. Keys that do not exist are omitted from the map.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}

// ProviderForEnv picks the SecretProvider for appEnv. APP_ENV=local takes
// every value from the environment or .env and gets none.
func ProviderForEnv(appEnv, region string) SecretProvider {
	if appEnv == localEnv {
		return nil
	}
	return NewSSMProvider(region)
}
