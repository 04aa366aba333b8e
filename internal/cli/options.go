package cli

import "github.com/skybi/metaview/internal/config"

// Options represents the command line of metactl.
// Flags override the corresponding environment configuration.
type Options struct {
	Driver     string `short:"d" long:"driver" description:"storage driver (file|postgres|redis|inmem)"`
	File       string `short:"f" long:"file" description:"location of the session file"`
	APIBaseURL string `short:"a" long:"api" description:"base URL of the metadata API"`
	SessionKey string `short:"k" long:"key" description:"name of the session cell"`

	Token TokenCommand `command:"token" description:"read or write the stored credential"`
	Meta  struct{}     `command:"meta" description:"fetch the metadata for the stored credential and print it"`
}

// TokenCommand groups the credential subcommands
type TokenCommand struct {
	Get     struct{}        `command:"get" description:"print the stored credential"`
	Set     TokenSetCommand `command:"set" description:"store a credential"`
	Inspect struct{}        `command:"inspect" description:"print the unverified claims of the stored credential"`
}

// TokenSetCommand stores the given credential as-is
type TokenSetCommand struct {
	Args struct {
		Value string `positional-arg-name:"value" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (options *Options) apply(cfg *config.Config) {
	if options.Driver != "" {
		cfg.StorageDriver = options.Driver
	}
	if options.File != "" {
		cfg.FilePath = options.File
	}
	if options.APIBaseURL != "" {
		cfg.APIBaseURL = options.APIBaseURL
	}
	if options.SessionKey != "" {
		cfg.SessionKey = options.SessionKey
	}
}
