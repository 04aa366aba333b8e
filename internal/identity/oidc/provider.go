package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/secret"
	"github.com/skybi/metaview/internal/web/schema"
	"golang.org/x/oauth2"
)

var (
	cookieNameState     = "login_state"
	cookieLifetimeState = int(time.Hour.Seconds())

	// ErrNotInitialized is returned when the provider is used before Initialize was called
	ErrNotInitialized = errors.New("identity provider is not initialized")
)

var buttonTemplate = template.Must(template.New("button").Parse(
	`<a id="{{ .Target }}-signin" class="signin-button" href="{{ .StartURL }}">Sign in</a>`,
))

// Options configures the OIDC identity provider
type Options struct {
	IssuerURL    string
	ClientSecret string

	// BaseAddress is the externally reachable address of the web client, used to build the redirect URL
	BaseAddress string

	// SecureCookies marks the login flow state cookie as HTTPS only
	SecureCookies bool

	// Afterwards is the path the user agent is sent to after a credential was delivered
	Afterwards string

	// HTTPClient is used for discovery and token exchange if set
	HTTPClient *http.Client
}

type loginFlowState struct {
	ID     string `json:"id"`
	Nonce  string `json:"nonce"`
	Silent bool   `json:"silent"`
}

// Provider implements identity.Provider using the OpenID Connect authorization code flow.
// The raw ID token returned by the token endpoint is the credential; it is not verified.
type Provider struct {
	options Options
	writer  *schema.Writer

	mtx          sync.RWMutex
	discovered   *gooidc.Provider
	oauth2Config *oauth2.Config
	autoSelect   bool
	onCredential identity.CredentialFunc
}

var _ identity.Provider = (*Provider)(nil)

// New creates a new OIDC identity provider; discovery happens on the first Initialize call
func New(options Options) *Provider {
	if options.Afterwards == "" {
		options.Afterwards = "/home"
	}
	return &Provider{
		options: options,
		writer:  schema.NewWriter("OIDC identity provider"),
	}
}

// Initialize discovers the provider (once) and configures the OAuth2 client
func (provider *Provider) Initialize(cfg identity.Config, onCredential identity.CredentialFunc) error {
	provider.mtx.Lock()
	defer provider.mtx.Unlock()

	if provider.discovered == nil {
		discovered, err := gooidc.NewProvider(provider.context(context.Background()), provider.options.IssuerURL)
		if err != nil {
			return err
		}
		provider.discovered = discovered
	}

	provider.oauth2Config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: provider.options.ClientSecret,
		Endpoint:     provider.discovered.Endpoint(),
		RedirectURL:  provider.options.BaseAddress + "/login/callback",
		Scopes:       []string{gooidc.ScopeOpenID, "email", "profile"},
	}
	provider.autoSelect = cfg.AutoSelect
	provider.onCredential = onCredential
	return nil
}

// Prompt requests a silent sign-in if auto selection is enabled
func (provider *Provider) Prompt(_ context.Context) (*identity.Prompt, error) {
	provider.mtx.RLock()
	defer provider.mtx.RUnlock()
	if provider.oauth2Config == nil {
		return nil, ErrNotInitialized
	}
	if !provider.autoSelect {
		return nil, nil
	}
	return &identity.Prompt{RedirectURL: "/login/start?silent=true"}, nil
}

// RenderButton renders a link starting the interactive login flow
func (provider *Provider) RenderButton(target string) (template.HTML, error) {
	return renderButton(target, "/login/start")
}

// Routes registers the login flow start and callback endpoints
func (provider *Provider) Routes(router chi.Router) {
	router.Get("/login/start", provider.EndpointLoginFlow)
	router.Get("/login/callback", provider.EndpointLoginCallback)
}

// EndpointLoginFlow handles the 'GET /login/start' endpoint
func (provider *Provider) EndpointLoginFlow(writer http.ResponseWriter, request *http.Request) {
	provider.mtx.RLock()
	oauth2Config := provider.oauth2Config
	provider.mtx.RUnlock()
	if oauth2Config == nil {
		provider.writer.WriteErrors(writer, http.StatusServiceUnavailable, schema.ErrProviderNotInitialized)
		return
	}

	// Create and set the login flow state cookie
	state := loginFlowState{
		ID:     uuid.NewString(),
		Nonce:  secret.MustNew(24),
		Silent: request.URL.Query().Get("silent") == "true",
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		provider.writer.WriteInternalError(writer, err)
		return
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameState,
		Value:    base64.StdEncoding.EncodeToString(stateJSON),
		Path:     "/login",
		MaxAge:   cookieLifetimeState,
		Secure:   provider.options.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Redirect the user to the authentication endpoint of the OIDC provider
	options := []oauth2.AuthCodeOption{gooidc.Nonce(state.Nonce)}
	if state.Silent {
		options = append(options, oauth2.SetAuthURLParam("prompt", "none"))
	}
	http.Redirect(writer, request, oauth2Config.AuthCodeURL(state.ID, options...), http.StatusFound)
}

// EndpointLoginCallback handles the 'GET /login/callback' endpoint
func (provider *Provider) EndpointLoginCallback(writer http.ResponseWriter, request *http.Request) {
	provider.mtx.RLock()
	oauth2Config := provider.oauth2Config
	onCredential := provider.onCredential
	provider.mtx.RUnlock()
	if oauth2Config == nil {
		provider.writer.WriteErrors(writer, http.StatusServiceUnavailable, schema.ErrProviderNotInitialized)
		return
	}

	// Extract the state cookie
	stateCookie, err := request.Cookie(cookieNameState)
	if err != nil {
		provider.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrNoLoginFlow)
		return
	}
	stateJSON, err := base64.StdEncoding.DecodeString(stateCookie.Value)
	if err != nil {
		provider.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrInvalidLoginState)
		return
	}
	state := new(loginFlowState)
	if err := json.Unmarshal(stateJSON, state); err != nil {
		provider.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrInvalidLoginState)
		return
	}
	query := request.URL.Query()
	if query.Get("state") != state.ID {
		provider.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrLoginStateMismatch)
		return
	}

	// Unset the state cookie
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameState,
		Value:    "",
		Path:     "/login",
		Expires:  time.Now().Add(-time.Second),
		HttpOnly: true,
	})

	// The provider reports failures (i.e. 'login_required' after a silent prompt) via the error parameter.
	// They are not handled here; the user simply lands on the login view again.
	if providerErr := query.Get("error"); providerErr != "" {
		log.Warn().Str("error", providerErr).Bool("silent", state.Silent).Msg("the identity provider did not issue a credential")
		http.Redirect(writer, request, "/login?"+url.Values{"error": {providerErr}}.Encode(), http.StatusFound)
		return
	}

	// Retrieve the OAuth2 token and extract the raw ID token
	oauth2Token, err := oauth2Config.Exchange(provider.context(request.Context()), query.Get("code"))
	if err != nil {
		log.Warn().Err(err).Msg("could not exchange the login code")
		provider.writer.WriteErrors(writer, http.StatusForbidden, schema.ErrInvalidLoginCode)
		return
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		log.Error().Msg("no 'id_token' field in OAuth2 token; most likely an OIDC provider error")
		provider.writer.WriteErrors(writer, http.StatusBadGateway, schema.ErrNoIDToken)
		return
	}

	// The credential is not verified; a nonce mismatch is only worth a warning
	if claims, err := identity.Describe(rawIDToken); err == nil && claims.Nonce != "" && !secret.Equal(claims.Nonce, state.Nonce) {
		log.Warn().Msg("the issued credential carries an unexpected nonce")
	}

	if err := onCredential(request.Context(), rawIDToken); err != nil {
		provider.writer.WriteInternalError(writer, fmt.Errorf("storing the issued credential: %w", err))
		return
	}
	http.Redirect(writer, request, provider.options.Afterwards, http.StatusFound)
}

func (provider *Provider) context(ctx context.Context) context.Context {
	if provider.options.HTTPClient == nil {
		return ctx
	}
	return gooidc.ClientContext(ctx, provider.options.HTTPClient)
}

func renderButton(target, startURL string) (template.HTML, error) {
	buf := new(strings.Builder)
	err := buttonTemplate.Execute(buf, map[string]string{
		"Target":   target,
		"StartURL": startURL,
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
