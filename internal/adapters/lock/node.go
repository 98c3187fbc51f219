package lock

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the locker Graft node.
const NodeID graft.ID = "adapter.locker"

// ConcreteNodeID exposes the *Locker so its retry budget can be configured.
const ConcreteNodeID graft.ID = "adapter.locker.concrete"

func init() {
	graft.Register(graft.Node[*Locker]{
		ID:        ConcreteNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Locker, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLocker(log), nil
		},
	})

	graft.Register(graft.Node[ports.Locker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ConcreteNodeID},
		Run: func(ctx context.Context) (ports.Locker, error) {
			l, err := graft.Dep[*Locker](ctx)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
	})
}
