// Package cacheopts provides embedding-cache configuration options.
package cacheopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/campus-io/study-buddy/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the redis-backed query embedding cache.
type Options struct {
	// Enabled turns the cache on.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cache entry lifetime. Embeddings for a fixed model are
	// stable, so long TTLs are safe.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces cache keys in redis.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions creates default cache options.
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		TTL:       24 * time.Hour,
		KeyPrefix: "studybuddy:embed:",
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"cache.enabled", o.Enabled, "Enable the redis query-embedding cache.")
	fs.DurationVar(&o.TTL, options.Join(prefixes...)+"cache.ttl", o.TTL, "Cache entry lifetime.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"cache.key-prefix", o.KeyPrefix, "Redis key prefix for cache entries.")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Enabled && o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive when the cache is enabled"))
	}
	return errs
}
