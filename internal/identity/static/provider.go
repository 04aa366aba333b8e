package static

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/web/schema"
)

var buttonTemplate = template.Must(template.New("button").Parse(`<form id="{{ . }}-signin" method="post" action="/login/credential">
	<input type="text" name="credential" placeholder="Paste a credential" autocomplete="off">
	<button type="submit">Sign in</button>
</form>`))

// Provider implements identity.Provider for credentials that are handed to the web client directly.
// It accepts credentials posted to '/login/credential' (the way credential-posting widgets deliver them) and may
// issue a pre-configured credential on silent sign-in.
type Provider struct {
	credential string
	afterwards string
	writer     *schema.Writer

	mtx          sync.RWMutex
	autoSelect   bool
	onCredential identity.CredentialFunc
}

var _ identity.Provider = (*Provider)(nil)

// New creates a new static identity provider.
// An empty credential disables silent sign-in.
func New(credential string) *Provider {
	return &Provider{
		credential: credential,
		afterwards: "/home",
		writer:     schema.NewWriter("static identity provider"),
	}
}

// Initialize registers the credential callback
func (provider *Provider) Initialize(cfg identity.Config, onCredential identity.CredentialFunc) error {
	provider.mtx.Lock()
	defer provider.mtx.Unlock()
	provider.autoSelect = cfg.AutoSelect
	provider.onCredential = onCredential
	return nil
}

// Prompt issues the configured credential if auto selection is enabled
func (provider *Provider) Prompt(ctx context.Context) (*identity.Prompt, error) {
	provider.mtx.RLock()
	autoSelect, onCredential := provider.autoSelect, provider.onCredential
	provider.mtx.RUnlock()
	if !autoSelect || provider.credential == "" || onCredential == nil {
		return nil, nil
	}
	if err := onCredential(ctx, provider.credential); err != nil {
		return nil, err
	}
	return nil, nil
}

// RenderButton renders a form posting a credential
func (provider *Provider) RenderButton(target string) (template.HTML, error) {
	buf := new(strings.Builder)
	if err := buttonTemplate.Execute(buf, target); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Routes registers the credential endpoint
func (provider *Provider) Routes(router chi.Router) {
	router.Post("/login/credential", provider.EndpointCredential)
}

// EndpointCredential handles the 'POST /login/credential' endpoint
func (provider *Provider) EndpointCredential(writer http.ResponseWriter, request *http.Request) {
	provider.mtx.RLock()
	onCredential := provider.onCredential
	provider.mtx.RUnlock()
	if onCredential == nil {
		provider.writer.WriteErrors(writer, http.StatusServiceUnavailable, schema.ErrProviderNotInitialized)
		return
	}

	if err := request.ParseForm(); err != nil {
		provider.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrInvalidForm)
		return
	}
	if err := onCredential(request.Context(), request.PostForm.Get("credential")); err != nil {
		provider.writer.WriteInternalError(writer, fmt.Errorf("storing the posted credential: %w", err))
		return
	}
	http.Redirect(writer, request, provider.afterwards, http.StatusSeeOther)
}
