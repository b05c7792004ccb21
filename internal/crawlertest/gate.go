package crawlertest

import (
	"context"
	"sync"
)

// Gate holds requests to one path until released.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Hold blocks every request to path until the returned gate is released.
func (s *Server) Hold(path string) *Gate {
	g := &Gate{
		arrived: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
	s.mu.Lock()
	s.gates[path] = g
	s.mu.Unlock()
	return g
}

// Arrived receives once per request that reached the gate.
func (g *Gate) Arrived() <-chan struct{} {
	return g.arrived
}

// Release lets held and future requests through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

func (g *Gate) wait(ctx context.Context) {
	select {
	case g.arrived <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}
