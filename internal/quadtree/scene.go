package quadtree

// Handle identifies a tile mesh inside an external scene graph. Its meaning is
// up to the Scene that issued it.
type Handle uint64

// Scene is the render graph leaf meshes are attached to. Attach is called once
// a leaf mesh is fully built; Detach is called before that mesh is released.
// Attach failures are treated as resource exhaustion.
type Scene interface {
	Attach(t *Tile, m *Mesh) (Handle, error)
	Detach(h Handle)
}

// NopScene accepts every mesh and does nothing with it.
type NopScene struct{}

func (NopScene) Attach(*Tile, *Mesh) (Handle, error) { return 0, nil }
func (NopScene) Detach(Handle)                      {}
