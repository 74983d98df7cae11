package fetcher

import "time"

const (
	defaultRequestTimeout = 15 * time.Second
	defaultMaxBodyBytes   = 10 * 1024 * 1024 // 10 MB
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds fetcher configuration.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}
