// Package options contains flags and options for initializing the
// assistant server.
package options

import (
	"time"

	"github.com/spf13/pflag"
	utilerrors "go.uber.org/multierr"

	"github.com/campus-io/study-buddy/internal/assistant"
	cacheopts "github.com/campus-io/study-buddy/pkg/options/cache"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
	llmopts "github.com/campus-io/study-buddy/pkg/options/llm"
	logopts "github.com/campus-io/study-buddy/pkg/options/logger"
	milvusopts "github.com/campus-io/study-buddy/pkg/options/milvus"
	mysqlopts "github.com/campus-io/study-buddy/pkg/options/mysql"
	redisopts "github.com/campus-io/study-buddy/pkg/options/redis"
	httpopts "github.com/campus-io/study-buddy/pkg/options/server/http"
	storageopts "github.com/campus-io/study-buddy/pkg/options/storage"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// JWTOptions contains session token verification configuration.
	JWTOptions *jwtopts.Options `json:"jwt" mapstructure:"jwt"`

	// MySQLOptions contains relational database configuration.
	MySQLOptions *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`

	// RedisOptions contains redis configuration for the embedding cache.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// MilvusOptions contains vector database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// StorageOptions contains upload blob storage configuration.
	StorageOptions *storageopts.Options `json:"storage" mapstructure:"storage"`

	// CacheOptions contains embedding cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// LLMOptions contains the embedding/completion gateway configuration.
	LLMOptions *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:     httpopts.NewOptions(),
		LogOptions:      logopts.NewOptions(),
		JWTOptions:      jwtopts.NewOptions(),
		MySQLOptions:    mysqlopts.NewOptions(),
		RedisOptions:    redisopts.NewOptions(),
		MilvusOptions:   milvusopts.NewOptions(),
		StorageOptions:  storageopts.NewOptions(),
		CacheOptions:    cacheopts.NewOptions(),
		LLMOptions:      llmopts.NewProviderOptions(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// AddFlags registers all option flags on the given flagset.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.JWTOptions.AddFlags(fs)
	o.MySQLOptions.AddFlags(fs)
	o.RedisOptions.AddFlags(fs)
	o.MilvusOptions.AddFlags(fs)
	o.StorageOptions.AddFlags(fs)
	o.CacheOptions.AddFlags(fs)
	o.LLMOptions.AddFlags(fs)

	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")
}

// Complete fills in any missing defaults.
func (o *ServerOptions) Complete() error {
	return nil
}

// Validate validates all option sections.
func (o *ServerOptions) Validate() error {
	var err error

	for _, errs := range [][]error{
		o.HTTPOptions.Validate(),
		o.MilvusOptions.Validate(),
		o.CacheOptions.Validate(),
		o.LLMOptions.Validate(),
	} {
		for _, e := range errs {
			err = utilerrors.Append(err, e)
		}
	}

	for _, e := range []error{
		o.LogOptions.Validate(),
		o.JWTOptions.Validate(),
		o.MySQLOptions.Validate(),
		o.RedisOptions.Validate(),
		o.StorageOptions.Validate(),
	} {
		if e != nil {
			err = utilerrors.Append(err, e)
		}
	}

	return err
}

// Config builds the runtime configuration from the options.
func (o *ServerOptions) Config() (*assistant.Config, error) {
	return &assistant.Config{
		HTTPOptions:     o.HTTPOptions,
		LogOptions:      o.LogOptions,
		JWTOptions:      o.JWTOptions,
		MySQLOptions:    o.MySQLOptions,
		RedisOptions:    o.RedisOptions,
		MilvusOptions:   o.MilvusOptions,
		StorageOptions:  o.StorageOptions,
		CacheOptions:    o.CacheOptions,
		LLMOptions:      o.LLMOptions,
		ShutdownTimeout: o.ShutdownTimeout,
	}, nil
}
