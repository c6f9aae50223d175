package notify

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
)

// NodeID is the unique identifier for the notification queue Graft node.
const NodeID graft.ID = "adapter.notify"

func init() {
	graft.Register(graft.Node[*Queue]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Queue, error) {
			return NewQueue(clockwork.NewRealClock(), DefaultLimit), nil
		},
	})
}
