package meshgl

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Registry owns the mirrors of every mesh shown by a renderer.
type Registry struct {
	up      Uploader
	mirrors map[uuid.UUID]*MeshGL
	order   []uuid.UUID
}

// NewRegistry returns an empty registry uploading through up.
func NewRegistry(up Uploader) *Registry {
	return &Registry{
		up:      up,
		mirrors: make(map[uuid.UUID]*MeshGL),
	}
}

// Add returns the mirror of m, creating it on first use. The registry does
// not keep m alive.
func (r *Registry) Add(m *mesh.Mesh) *MeshGL {
	if g, ok := r.mirrors[m.UID]; ok {
		return g
	}
	g := New(m, r.up)
	r.mirrors[m.UID] = g
	r.order = append(r.order, m.UID)
	return g
}

// Get returns the mirror registered under id.
func (r *Registry) Get(id uuid.UUID) (*MeshGL, bool) {
	g, ok := r.mirrors[id]
	return g, ok
}

// Remove releases and forgets the mirror registered under id.
func (r *Registry) Remove(id uuid.UUID) {
	g, ok := r.mirrors[id]
	if !ok {
		return
	}
	g.Release()
	delete(r.mirrors, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered mirrors.
func (r *Registry) Len() int {
	return len(r.order)
}

// Sync synchronizes every mirror in registration order. Mirrors whose mesh
// has been collected are released and dropped. Upload failures are collected
// and returned together.
func (r *Registry) Sync() error {
	var errs error
	for _, id := range append([]uuid.UUID(nil), r.order...) {
		err := r.mirrors[id].Sync()
		switch {
		case errors.Is(err, ErrMeshExpired):
			logger.Debug("dropping mirror of collected mesh", zap.Stringer("uid", id))
			r.Remove(id)
		case err != nil:
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Live returns the mirrors whose mesh still exists, in registration order.
func (r *Registry) Live() []*MeshGL {
	out := make([]*MeshGL, 0, len(r.order))
	for _, id := range r.order {
		if g := r.mirrors[id]; g.Mesh() != nil {
			out = append(out, g)
		}
	}
	return out
}
