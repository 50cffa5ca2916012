// Package jwt provides JWT configuration options for the session
// middleware. Tokens are issued elsewhere; this service only verifies.
package jwt

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultSigningMethod is the default JWT signing algorithm.
	DefaultSigningMethod = "HS256"

	// DefaultExpired is the default token expiration time.
	DefaultExpired = 2 * time.Hour

	// MinKeyLength is the minimum required key length.
	MinKeyLength = 32
)

// SupportedSigningMethods contains the accepted HMAC signing algorithms.
var SupportedSigningMethods = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Options contains JWT verification configuration.
type Options struct {
	// Key is the HMAC secret used to verify tokens. Prefer the JWT_KEY
	// environment variable over the flag.
	Key string `json:"-" mapstructure:"key"`

	// SigningMethod is the expected JWT signing algorithm.
	SigningMethod string `json:"signing-method" mapstructure:"signing-method"`

	// Expired is the token expiration duration.
	Expired time.Duration `json:"expired" mapstructure:"expired"`

	// Issuer is the expected token issuer (iss claim).
	Issuer string `json:"issuer" mapstructure:"issuer"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		SigningMethod: DefaultSigningMethod,
		Expired:       DefaultExpired,
		Issuer:        "study-buddy",
	}
}

// AddFlags adds flags for JWT options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Key, "jwt.key", o.Key, "JWT signing key (DEPRECATED: use JWT_KEY env var instead)")
	fs.StringVar(&o.SigningMethod, "jwt.signing-method", o.SigningMethod, "JWT signing algorithm (HS256|HS384|HS512)")
	fs.DurationVar(&o.Expired, "jwt.expired", o.Expired, "JWT token expiration duration")
	fs.StringVar(&o.Issuer, "jwt.issuer", o.Issuer, "Expected JWT issuer")
}

// Validate validates the JWT options.
func (o *Options) Validate() error {
	if o.Key == "" {
		o.Key = os.Getenv("JWT_KEY")
	}

	if !SupportedSigningMethods[o.SigningMethod] {
		return fmt.Errorf("unsupported signing method: %s", o.SigningMethod)
	}
	if o.Key != "" && len(o.Key) < MinKeyLength {
		return fmt.Errorf("jwt key must be at least %d characters", MinKeyLength)
	}
	if o.Expired <= 0 {
		return fmt.Errorf("jwt expired must be positive")
	}
	return nil
}
