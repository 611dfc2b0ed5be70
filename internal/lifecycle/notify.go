package lifecycle

import (
	"context"

	"github.com/google/uuid"
)

// VisitNotifier is called after commit for every appointment that reached Done.
// Implementations own their failures; nothing is returned to the mutation.
type VisitNotifier interface {
	VisitCompleted(ctx context.Context, appointmentID uuid.UUID)
}

// Notify hands every completed visit to n. A nil notifier is a no-op.
func (e Effects) Notify(ctx context.Context, n VisitNotifier) {
	if n == nil {
		return
	}
	for _, id := range e.CompletedVisits {
		n.VisitCompleted(ctx, id)
	}
}
