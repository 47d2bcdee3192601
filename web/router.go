// Package web serves the counter pages and the form endpoints behind their buttons.
package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-counter-go/connectors/wehttp"
	"github.com/weegigs/wee-counter-go/counter"
	"github.com/weegigs/wee-counter-go/view"
	"github.com/weegigs/wee-counter-go/we"
)

const APIPath = "/api/counter"

type Option func(site *site)

// Banner sets the text shown at the top of every page. It is displayed verbatim.
func Banner(text string) Option {
	return func(site *site) {
		site.banner = text
	}
}

func Logger(log *zerolog.Logger) Option {
	return func(site *site) {
		site.log = log
	}
}

type site struct {
	container counter.Container
	banner    string
	log       *zerolog.Logger
}

func NewRouter(container counter.Container, options ...Option) http.Handler {
	site := &site{container: container}
	for _, option := range options {
		option(site)
	}
	if site.log == nil {
		site.log = &log.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(view.HomePath, site.page("Home", view.HomePath, view.HomePage()))
	r.Get(view.AboutPath, site.page("About Us", view.AboutPath, view.AboutPage()))

	r.Post(view.IncrementPath, site.dispatch(func(*http.Request) (we.Action, error) {
		return counter.Increment{}, nil
	}))
	r.Post(view.DecrementPath, site.dispatch(func(*http.Request) (we.Action, error) {
		return counter.Decrement{}, nil
	}))
	r.Post(view.IncrementByAmountPath, site.dispatch(incrementByAmount))

	r.Mount(APIPath, wehttp.NewHandler[counter.State](container, wehttp.Logger[counter.State](site.log)))

	r.NotFound(site.notFound)

	return r
}

func (site *site) layout(title string, path string) view.LayoutOptions {
	return view.LayoutOptions{
		Title:   title,
		Banner:  site.banner,
		Value:   site.container.Snapshot().State.Value,
		Path:    path,
		LiveURL: APIPath + "/ws",
	}
}

func (site *site) page(title string, path string, content templ.Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(view.Layout(site.layout(title, path), content)).ServeHTTP(w, r)
	}
}

func (site *site) notFound(w http.ResponseWriter, r *http.Request) {
	component := view.Layout(site.layout("Not Found", r.URL.Path), view.NotFoundPage(r.URL.Path))
	templ.Handler(component, templ.WithStatus(http.StatusNotFound)).ServeHTTP(w, r)
}

type actionParser func(r *http.Request) (we.Action, error)

func incrementByAmount(r *http.Request) (we.Action, error) {
	raw := strings.TrimSpace(r.PostFormValue("amount"))
	if raw == "" {
		return counter.IncrementByAmount{Amount: counter.DefaultAmount}, nil
	}

	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	return counter.IncrementByAmount{Amount: amount}, nil
}

func (site *site) dispatch(parse actionParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := parse(r)
		if err != nil {
			site.log.Info().Err(err).Str("path", r.URL.Path).Msg("invalid form submission")
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		change, err := site.container.Dispatch(r.Context(), action)
		if err != nil {
			site.log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to dispatch action")
			http.Error(w, "failed to dispatch action", http.StatusInternalServerError)
			return
		}

		site.log.Debug().
			Str("action", change.ActionType.String()).
			Int64("value", change.Current.Value).
			Msg("counter changed")

		http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
	}
}

// returnPath is the path of a same origin referer, or the home page.
func returnPath(r *http.Request) string {
	referer, err := url.Parse(r.Referer())
	if err != nil || referer.Path == "" {
		return view.HomePath
	}
	if referer.Host != "" && referer.Host != r.Host {
		return view.HomePath
	}
	if !strings.HasPrefix(referer.Path, "/") || strings.HasPrefix(referer.Path, "//") {
		return view.HomePath
	}

	return referer.Path
}
