package solve

import (
	"circuitsim/pkg/physics"
	"circuitsim/pkg/snapshot"
)

// Options configures one solve. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Physics physics.Model

	// NodeMergeTolerance is the Euclidean distance, in canvas units, under
	// which two connection points become the same node.
	NodeMergeTolerance float64

	// AutoSeriesOnNoWires synthesizes a closed series ring when the scene
	// has two or more elements and no wires at all.
	AutoSeriesOnNoWires bool

	// KCLTolerance and KVLTolerance bound the post-solve residuals before
	// the result counts as numerically inconsistent.
	KCLTolerance float64
	KVLTolerance float64

	// Publish holds the per-field deltas under which a new snapshot is
	// considered unchanged and not republished.
	Publish snapshot.Tolerances

	// NodalFallback switches non-series-parallel topologies (bridge
	// circuits) to a full sparse nodal-analysis solve instead of the
	// flagged zero-current snapshot.
	NodalFallback bool
}

func DefaultOptions() Options {
	return Options{
		Physics:             physics.DefaultModel(),
		NodeMergeTolerance:  15,
		AutoSeriesOnNoWires: true,
		KCLTolerance:        1e-6,
		KVLTolerance:        1e-6,
		Publish:             snapshot.Tolerances{I: 1e-4, V: 1e-4, Brightness: 1e-3},
		NodalFallback:       false,
	}
}
