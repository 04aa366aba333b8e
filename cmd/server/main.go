package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/config"
	"github.com/skybi/metaview/internal/home"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/identity/oidc"
	"github.com/skybi/metaview/internal/identity/static"
	"github.com/skybi/metaview/internal/login"
	"github.com/skybi/metaview/internal/meta"
	"github.com/skybi/metaview/internal/session"
	"github.com/skybi/metaview/internal/storage/drivers"
	"github.com/skybi/metaview/internal/web"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg.Redacted())).Msg("")

	// Initialize the storage driver holding the session store
	log.Info().Str("driver", cfg.StorageDriver).Bool("cache", cfg.StorageCache).Msg("initializing session storage...")
	driver, err := drivers.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the session storage")
	}
	defer func() {
		log.Info().Msg("closing the session storage...")
		driver.Close()
	}()
	store := session.NewStore(driver.Cells(), cfg.SessionKey)

	// Create the identity provider the login view delegates to
	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the identity provider")
	}

	// Create the metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Create the login flow and the home view controller
	flow := login.NewFlow(store, provider, identity.Config{
		ClientID:   cfg.OIDCClientID,
		AutoSelect: cfg.OIDCAutoSelect,
	})
	client := meta.NewClient(cfg.MetaEndpoint(), cfg.FetchTimeout)
	controller := home.NewController(store, client, home.NewMetrics(registry))

	// Start up the web client
	log.Info().Str("address", cfg.ListenAddress).Str("api", client.Endpoint()).Msg("starting up the web client...")
	service := &web.Service{
		Config:   cfg,
		Login:    flow,
		Home:     controller,
		Registry: registry,
	}
	webErrs := make(chan error, 1)
	service.Startup(webErrs)
	go func() {
		err := <-webErrs
		log.Fatal().Err(err).Msg("the web client raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the web client...")
		service.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}

func newProvider(cfg *config.Config) (identity.Provider, error) {
	switch cfg.IdentityProvider {
	case config.IdentityProviderOIDC:
		return oidc.New(oidc.Options{
			IssuerURL:     cfg.OIDCProviderURL,
			ClientSecret:  cfg.OIDCClientSecret,
			BaseAddress:   cfg.BaseAddress,
			SecureCookies: cfg.IsBaseAddressSecure(),
		}), nil
	case config.IdentityProviderStatic:
		return static.New(cfg.StaticCredential), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}
}
