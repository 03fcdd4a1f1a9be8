// Package config loads the service configuration from a YAML file and
// environment variables, applies defaults and validates the result. Keys
// map to environment variables by upper-casing and replacing dots with
// underscores: cache.redis.url is CACHE_REDIS_URL.
package config
