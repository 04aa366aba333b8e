package web

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/skybi/metaview/internal/config"
	"github.com/skybi/metaview/internal/home"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/identity/static"
	"github.com/skybi/metaview/internal/login"
	"github.com/skybi/metaview/internal/meta"
	"github.com/skybi/metaview/internal/session"
	"github.com/skybi/metaview/internal/storage/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metaAPI struct {
	mtx            sync.Mutex
	authorizations []string
}

func (api *metaAPI) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	api.mtx.Lock()
	api.authorizations = append(api.authorizations, request.Header.Get("Authorization"))
	api.mtx.Unlock()
	writer.Header().Set("Content-Type", "application/json")
	_, _ = writer.Write([]byte(`{"user":"x"}`))
}

func (api *metaAPI) seen() []string {
	api.mtx.Lock()
	defer api.mtx.Unlock()
	return append([]string(nil), api.authorizations...)
}

type redirectingProvider struct{}

func (redirectingProvider) Initialize(identity.Config, identity.CredentialFunc) error { return nil }

func (redirectingProvider) Prompt(context.Context) (*identity.Prompt, error) {
	return &identity.Prompt{RedirectURL: "/login/start?silent=true"}, nil
}

func (redirectingProvider) RenderButton(string) (template.HTML, error) { return "", nil }

func (redirectingProvider) Routes(chi.Router) {}

type fixture struct {
	store   *session.Store
	home    *home.Controller
	api     *metaAPI
	server  *httptest.Server
	client  *http.Client
	service *Service
}

func newFixture(t *testing.T, provider identity.Provider) *fixture {
	t.Helper()

	api := new(metaAPI)
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	driver := inmem.New()
	require.NoError(t, driver.Initialize(context.Background()))
	store := session.NewStore(driver.Cells(), session.DefaultKey)

	registry := prometheus.NewRegistry()
	controller := home.NewController(store, meta.NewClient(apiServer.URL+"/api/meta", 0), home.NewMetrics(registry))

	service := &Service{
		Config:   &config.Config{BaseAddress: "http://localhost:3000"},
		Login:    login.NewFlow(store, provider, identity.Config{ClientID: "client-1"}),
		Home:     controller,
		Registry: registry,
	}
	server := httptest.NewServer(service.Router())
	t.Cleanup(server.Close)
	t.Cleanup(controller.Unmount)

	return &fixture{
		store:   store,
		home:    controller,
		api:     api,
		server:  server,
		service: service,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	response, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response, string(body)
}

func TestSignInAndViewMetadata(t *testing.T) {
	f := newFixture(t, static.New(""))

	response, body := f.get(t, "/login")
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, body, `id="buttonDiv"`)
	assert.Contains(t, body, `href="/home"`)
	assert.Empty(t, f.api.seen())

	response, err := f.client.PostForm(f.server.URL+"/login/credential", url.Values{"credential": {"abc.def.ghi"}})
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, http.StatusSeeOther, response.StatusCode)
	assert.Equal(t, "/home", response.Header.Get("Location"))

	token, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	response, body = f.get(t, "/home")
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, []string{"Bearer abc.def.ghi"}, f.api.seen())
	assert.Contains(t, body, template.HTMLEscapeString("{\n  \"user\": \"x\"\n}"))
	assert.Equal(t, home.StateDisplayed, f.home.Snapshot().State)

	// Reloading the mounted view does not fetch again for the same token
	_, _ = f.get(t, "/home")
	assert.Len(t, f.api.seen(), 1)

	// Navigating away discards the displayed content
	_, _ = f.get(t, "/login")
	assert.False(t, f.home.Mounted())
	assert.Empty(t, f.home.Snapshot().Content)
}

func TestHomeWithoutCredentialSendsEmptyBearer(t *testing.T) {
	f := newFixture(t, static.New(""))

	response, _ := f.get(t, "/home")
	require.Equal(t, http.StatusOK, response.StatusCode)
	// The server strips the trailing space of "Bearer "
	assert.Equal(t, []string{"Bearer"}, f.api.seen())
}

func TestLoginRedirectsToPrompt(t *testing.T) {
	f := newFixture(t, redirectingProvider{})

	response, _ := f.get(t, "/login")
	assert.Equal(t, http.StatusFound, response.StatusCode)
	assert.Equal(t, "/login/start?silent=true", response.Header.Get("Location"))

	response, _ = f.get(t, "/login?error=interaction_required")
	assert.Equal(t, http.StatusOK, response.StatusCode)

	require.NoError(t, f.store.Set(context.Background(), "abc.def.ghi"))
	response, body := f.get(t, "/login")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, body, "Signed in")
}

func TestRootRedirectsToHome(t *testing.T) {
	f := newFixture(t, static.New(""))

	response, _ := f.get(t, "/")
	assert.Equal(t, http.StatusFound, response.StatusCode)
	assert.Equal(t, "/home", response.Header.Get("Location"))
}

func TestUnknownRouteWritesJSONError(t *testing.T) {
	f := newFixture(t, static.New(""))

	response, body := f.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	assert.Equal(t, "application/json", response.Header.Get("Content-Type"))
	assert.Contains(t, body, `"generic.notFound"`)
}

func TestMetricsExposeFetches(t *testing.T) {
	f := newFixture(t, static.New(""))

	_, _ = f.get(t, "/home")
	response, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, body, `metaview_meta_fetches_total{outcome="displayed"} 1`)
}
