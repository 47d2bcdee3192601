package wehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/weegigs/wee-counter-go/we"
)

func (service *httpService[T]) live() http.Handler {
	return websocket.Server{
		Handshake: sameOrigin,
		Handler:   service.stream,
	}
}

func sameOrigin(config *websocket.Config, r *http.Request) error {
	origin, err := websocket.Origin(config, r)
	if err != nil {
		return err
	}
	if origin == nil || origin.Host != r.Host {
		return fmt.Errorf("websocket origin %v does not match host %s", origin, r.Host)
	}

	config.Origin = origin
	return nil
}

// stream sends the current snapshot, then one snapshot per change. Only the newest pending
// snapshot is kept for a slow client.
func (service *httpService[T]) stream(conn *websocket.Conn) {
	defer conn.Close()

	ctx := conn.Request().Context()
	updates := make(chan we.Snapshot[T], 1)

	unsubscribe := service.container.Subscribe(func(_ context.Context, change we.Change[T]) {
		offer(updates, change.Snapshot())
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_, _ = io.Copy(io.Discard, conn)
	}()

	current := service.container.Snapshot()
	if err := service.send(conn, current); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case snapshot := <-updates:
			// the subscription was open before the first snapshot was read
			if !snapshot.Revision.After(current.Revision) {
				continue
			}

			current = snapshot
			if err := service.send(conn, current); err != nil {
				return
			}
		}
	}
}

func (service *httpService[T]) send(conn *websocket.Conn, snapshot we.Snapshot[T]) error {
	resource, err := service.encoder.Resource(snapshot)
	if err != nil {
		service.log.Error().Err(err).Str("store", snapshot.Store.String()).Msg("failed to encode resource")
		return err
	}

	if err := websocket.JSON.Send(conn, resource); err != nil {
		service.log.Debug().Err(err).Msg("live client went away")
		return err
	}

	return nil
}

// offer replaces any pending value with v. It has a single producer: subscribers are called
// one change at a time.
func offer[V any](ch chan V, v V) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
