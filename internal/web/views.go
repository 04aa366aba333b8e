package web

import (
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// EndpointLogin handles the 'GET /login' view.
// Navigating here unmounts the home view; a silent sign-in is attempted if no credential is stored yet.
func (service *Service) EndpointLogin(writer http.ResponseWriter, request *http.Request) {
	service.Home.Unmount()

	view, err := service.Login.Mount(request.Context())
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	// A provider reporting an error must not be prompted again right away
	if view.Prompt != nil && view.Prompt.RedirectURL != "" && !view.SignedIn && request.URL.Query().Get("error") == "" {
		http.Redirect(writer, request, view.Prompt.RedirectURL, http.StatusFound)
		return
	}
	service.render(writer, "login.html", view)
}

// EndpointHome handles the 'GET /home' view
func (service *Service) EndpointHome(writer http.ResponseWriter, request *http.Request) {
	if err := service.Home.Mount(request.Context()); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if err := service.Home.Wait(request.Context()); err != nil {
		hlog.FromRequest(request).Debug().Err(err).Msg("rendering the home view before the metadata arrived")
	}
	service.render(writer, "home.html", service.Home.Snapshot())
}
