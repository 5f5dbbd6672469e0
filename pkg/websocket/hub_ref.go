package websocket

import "sync/atomic"

// HubRef points at the currently active Hub so a fresh hub can be swapped in
// after a panic while handlers keep calling Get for new connections.
type HubRef struct {
	v atomic.Pointer[Hub]
}

func NewHubRef(initial *Hub) *HubRef {
	r := &HubRef{}
	r.v.Store(initial)
	return r
}

func (r *HubRef) Get() (*Hub, bool) {
	h := r.v.Load()
	return h, h != nil
}

func (r *HubRef) Set(h *Hub) {
	r.v.Store(h)
}
