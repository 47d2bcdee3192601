package wehttp

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weegigs/wee-counter-go/we"
)

type HandlerOption[T any] func(service *httpService[T])

func Logger[T any](log *zerolog.Logger) HandlerOption[T] {
	return func(service *httpService[T]) {
		service.log = log
	}
}

func Serializer[T any](serializer StateSerializer[T]) HandlerOption[T] {
	return func(service *httpService[T]) {
		service.encoder.Serializer = serializer
	}
}

// NewHandler exposes a container as a JSON resource. GET / returns the current snapshot, POST /
// dispatches a remote action and GET /ws streams a snapshot per change.
func NewHandler[T any](container we.Container[T], options ...HandlerOption[T]) http.Handler {
	service := &httpService[T]{container: container}
	for _, option := range options {
		option(service)
	}
	if service.log == nil {
		service.log = &log.Logger
	}

	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Method("GET", "/", service.getResource())
	r.Method("POST", "/", service.dispatchAction())
	r.Method("GET", "/ws", service.live())

	return WithTelemetry(r, "we-http")
}

type httpService[T any] struct {
	log       *zerolog.Logger
	container we.Container[T]
	encoder   ResourceEncoder[T]
}

// actionRequest is the wire form of a remote action: the payload is any JSON value.
type actionRequest struct {
	Type    we.ActionType   `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (service *httpService[T]) getResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service.encode(w, r, http.StatusOK, service.container.Snapshot())
	}
}

func (service *httpService[T]) dispatchAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-type")
		mediaType, _, err := mime.ParseMediaType(contentType)
		if mediaType != "application/json" || err != nil {
			http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var request actionRequest
		if err := json.UnmarshalContext(r.Context(), body, &request); err != nil || request.Type == "" {
			service.log.Info().Err(err).Msg("failed to unmarshal action")
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		action := we.RemoteAction{ActionType: request.Type}
		if len(request.Payload) > 0 && string(request.Payload) != "null" {
			action.Payload = we.JsonData(request.Payload)
		}

		change, err := service.container.Dispatch(r.Context(), action)
		if err != nil {
			service.fail(w, r, request.Type, err)
			return
		}

		service.encode(w, r, http.StatusOK, change.Snapshot())
	}
}

func (service *httpService[T]) fail(w http.ResponseWriter, r *http.Request, actionType we.ActionType, err error) {
	var notFound we.ActionNotFoundError
	var invalid we.InvalidPayloadError

	switch {
	case errors.As(err, &notFound):
		service.log.Info().Str("action", actionType.String()).Msg("unknown action")
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &invalid):
		service.log.Info().Err(err).Str("action", actionType.String()).Msg("invalid action payload")
		http.Error(w, "invalid action payload", http.StatusBadRequest)
	default:
		service.log.Error().Err(err).Str("action", actionType.String()).Msg("failed to dispatch action")
		http.Error(w, "failed to dispatch action", http.StatusInternalServerError)
	}
}

func (service *httpService[T]) encode(w http.ResponseWriter, r *http.Request, status int, snapshot we.Snapshot[T]) {
	resource, err := service.encoder.Resource(snapshot)
	if err != nil {
		service.log.Error().Err(err).Str("store", snapshot.Store.String()).Msg("failed to encode resource")
		http.Error(w, "failed to encode resource", http.StatusInternalServerError)
		return
	}

	render.Status(r, status)
	render.JSON(w, r, resource)
}
