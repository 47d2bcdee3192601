package eventstore

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestJournal starts a single insecure eventstore node in a container. The returned func stops
// the container.
func TestJournal(ctx context.Context, options ...JournalOption) (*Journal, func(), error) {
	db, err := testcontainers.GenericContainer(
		ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image: "eventstore/eventstore:latest",
				Env: map[string]string{
					"EVENTSTORE_CLUSTER_SIZE":              "1",
					"EVENTSTORE_RUN_PROJECTIONS":           "None",
					"EVENTSTORE_HTTP_PORT":                 "2113",
					"EVENTSTORE_INSECURE":                  "true",
					"EVENTSTORE_ENABLE_ATOM_PUB_OVER_HTTP": "true",
				},
				ExposedPorts: []string{"2113/tcp"},
				WaitingFor:   wait.ForListeningPort("2113"),
			},
			Started: true,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	terminate := func() {
		if err := db.Terminate(ctx); err != nil {
			panic(err)
		}
	}

	host, err := db.Host(ctx)
	if err != nil {
		terminate()
		return nil, nil, err
	}

	port, err := db.MappedPort(ctx, "2113")
	if err != nil {
		terminate()
		return nil, nil, err
	}

	journal, err := Connect(fmt.Sprintf("esdb://admin:changeit@%s:%s?tls=false", host, port.Port()), options...)
	if err != nil {
		terminate()
		return nil, nil, err
	}

	return journal, terminate, nil
}
