package layer

type OrbitMarkersOption func(*orbitMarkers)

// WithMarkerCount sets the number of orbiting markers.
//
// Parameters:
//   - count: the marker count (values below 1 are ignored)
//
// Returns:
//   - OrbitMarkersOption: a function that sets the marker count
func WithMarkerCount(count int) OrbitMarkersOption {
	return func(m *orbitMarkers) {
		if count > 0 {
			m.count = count
		}
	}
}

// WithOrbitRadius sets the orbit radius in world units.
//
// Parameters:
//   - radius: the orbit radius (values at or below 0 are ignored)
//
// Returns:
//   - OrbitMarkersOption: a function that sets the orbit radius
func WithOrbitRadius(radius float64) OrbitMarkersOption {
	return func(m *orbitMarkers) {
		if radius > 0 {
			m.radius = radius
		}
	}
}

// WithMarkerColor sets the marker color as RGBA in [0, 1].
//
// Parameters:
//   - r, g, b, a: the color components
//
// Returns:
//   - OrbitMarkersOption: a function that sets the marker color
func WithMarkerColor(r, g, b, a float32) OrbitMarkersOption {
	return func(m *orbitMarkers) {
		m.params.Color = [4]float32{r, g, b, a}
	}
}
