package layer

type PointFieldOption func(*pointField)

// WithPointCount sets the number of points in the field.
//
// Parameters:
//   - count: the point count (values below 1 are ignored)
//
// Returns:
//   - PointFieldOption: a function that sets the point count
func WithPointCount(count int) PointFieldOption {
	return func(p *pointField) {
		if count > 0 {
			p.count = count
		}
	}
}

// WithPointSpread sets the lateral half-extent of the field in world units.
//
// Parameters:
//   - spread: the half-extent (values at or below 0 are ignored)
//
// Returns:
//   - PointFieldOption: a function that sets the spread
func WithPointSpread(spread float64) PointFieldOption {
	return func(p *pointField) {
		if spread > 0 {
			p.spread = spread
		}
	}
}

// WithDepthRange sets the depth of the field: recycled points respawn this far
// behind the near threshold.
//
// Parameters:
//   - depth: the depth range (values at or below 0 are ignored)
//
// Returns:
//   - PointFieldOption: a function that sets the depth range
func WithDepthRange(depth float64) PointFieldOption {
	return func(p *pointField) {
		if depth > 0 {
			p.depth = depth
		}
	}
}

// WithPointWorkers sets the number of pool workers used for the per-frame
// point update.
//
// Parameters:
//   - workers: the worker count (values below 1 are ignored)
//
// Returns:
//   - PointFieldOption: a function that sets the worker count
func WithPointWorkers(workers int) PointFieldOption {
	return func(p *pointField) {
		if workers > 0 {
			p.workers = workers
		}
	}
}
