//go:build integration

package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

func startNATS(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "4222/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestNATSBus_RelaysBetweenInstances(t *testing.T) {
	url := startNATS(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewNATSBus(url, "test.incidents", logger)
	if err != nil {
		t.Fatalf("bus a: %v", err)
	}
	defer a.Close()

	b, err := NewNATSBus(url, "test.incidents", logger)
	if err != nil {
		t.Fatalf("bus b: %v", err)
	}
	defer b.Close()

	idA, chA := a.Subscribe()
	defer a.Unsubscribe(idA)
	idB, chB := b.Subscribe()
	defer b.Unsubscribe(idB)

	// subscriptions are registered asynchronously on the server
	if err := a.conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := b.conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ev := event(domain.EventIncidentDeactivated)
	if err := a.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for name, ch := range map[string]<-chan domain.IncidentEvent{"a": chA, "b": chB} {
		select {
		case got := <-ch:
			if got.Incident.ID != ev.Incident.ID || got.Kind != domain.EventIncidentDeactivated {
				t.Errorf("%s: unexpected event %+v", name, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s: timeout waiting for relayed event", name)
		}
	}
}
