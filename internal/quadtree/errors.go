package quadtree

import "errors"

var (
	// ErrResourceAllocation reports that a tile mesh could not be allocated or
	// attached to the scene. The frame that hit it should be skipped; the tree
	// is left consistent.
	ErrResourceAllocation = errors.New("mesh resource allocation failed")

	ErrInvalidOptions = errors.New("invalid quadtree options")
	ErrClosed         = errors.New("quadtree closed")
)
