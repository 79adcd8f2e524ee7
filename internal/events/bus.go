// Package events fans incident changes out to everything that has to react to
// a new active set, such as open alert streams.
package events

import (
	"context"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

type Bus interface {
	Publish(ctx context.Context, ev domain.IncidentEvent) error
	Subscribe() (uint64, <-chan domain.IncidentEvent)
	Unsubscribe(id uint64)
	Close() error
}
