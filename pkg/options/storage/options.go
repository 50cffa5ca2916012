// Package storage provides blob-storage configuration options.
package storage

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Options defines configuration options for uploaded-file storage.
type Options struct {
	// Dir is the local directory uploaded files are stored in.
	Dir string `json:"dir" mapstructure:"dir"`

	// BaseURL is the public URL prefix uploaded files are served
	// under. The indexer fetches files back through this URL.
	BaseURL string `json:"base-url" mapstructure:"base-url"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Dir:     "./uploads",
		BaseURL: "http://127.0.0.1:8210/uploads",
	}
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Dir == "" {
		return fmt.Errorf("storage dir is required")
	}
	if o.BaseURL == "" {
		return fmt.Errorf("storage base URL is required")
	}
	return nil
}

// AddFlags adds flags for storage options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "storage.dir", o.Dir, "Directory uploaded files are stored in")
	fs.StringVar(&o.BaseURL, "storage.base-url", o.BaseURL, "Public URL prefix for uploaded files")
}
