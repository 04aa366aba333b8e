package login

import (
	"context"
	"html/template"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/identity"
	"github.com/skybi/metaview/internal/session"
)

// ButtonTarget is the ID of the element the sign-in affordance is rendered into
const ButtonTarget = "buttonDiv"

// View holds everything the login view displays
type View struct {
	Button   template.HTML
	Prompt   *identity.Prompt
	SignedIn bool
	Claims   *identity.Claims
}

// Flow obtains credentials from an identity provider and stores them in the session store
type Flow struct {
	store    *session.Store
	provider identity.Provider
	config   identity.Config
}

// NewFlow creates a new login flow for the given provider and its fixed configuration
func NewFlow(store *session.Store, provider identity.Provider, config identity.Config) *Flow {
	return &Flow{
		store:    store,
		provider: provider,
		config:   config,
	}
}

// Mount initializes the identity provider, attempts a sign-in and renders the sign-in affordance.
// Provider failures are not handled; they are logged and the view is rendered without the failed part.
func (flow *Flow) Mount(ctx context.Context) (*View, error) {
	if err := flow.provider.Initialize(flow.config, flow.HandleCredential); err != nil {
		log.Error().Err(err).Msg("could not initialize the identity provider")
		return flow.view(ctx, nil, "")
	}

	prompt, err := flow.provider.Prompt(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("the identity provider prompt failed")
		prompt = nil
	}

	button, err := flow.provider.RenderButton(ButtonTarget)
	if err != nil {
		log.Error().Err(err).Msg("could not render the sign-in button")
		button = ""
	}
	return flow.view(ctx, prompt, button)
}

// HandleCredential stores a credential issued by the identity provider as-is
func (flow *Flow) HandleCredential(ctx context.Context, credential string) error {
	log.Debug().Int("length", len(credential)).Msg("the identity provider issued a credential")
	return flow.store.Set(ctx, credential)
}

func (flow *Flow) view(ctx context.Context, prompt *identity.Prompt, button template.HTML) (*View, error) {
	token, err := flow.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	view := &View{
		Button:   button,
		Prompt:   prompt,
		SignedIn: token != "",
	}
	if claims, err := identity.Describe(token); err == nil {
		view.Claims = claims
	}
	return view, nil
}

// Routes registers the endpoints the identity provider delivers credentials through
func (flow *Flow) Routes(router chi.Router) {
	flow.provider.Routes(router)
}
