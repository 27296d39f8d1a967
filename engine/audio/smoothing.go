package audio

// DefaultSmoothing is the default exponential smoothing coefficient. Values
// between 0.15 and 0.3 trade responsiveness for visual calm.
const DefaultSmoothing = 0.2

// Smoother applies first-order exponential smoothing to raw band samples,
// guaranteeing the drive values the layers read have no frame-to-frame
// discontinuities even when the raw spectrum jumps sharply.
//
// The coefficient is applied per frame regardless of real elapsed time, so
// perceived responsiveness varies with frame rate. This matches the original
// behavior on purpose; see DESIGN.md.
type Smoother struct {
	k     float64
	drive Drive
}

// NewSmoother creates a Smoother with the given coefficient. Coefficients
// outside (0, 1] fall back to DefaultSmoothing.
//
// Parameters:
//   - k: the smoothing coefficient
//
// Returns:
//   - *Smoother: the newly created smoother
func NewSmoother(k float64) *Smoother {
	if k <= 0 || k > 1 {
		k = DefaultSmoothing
	}
	return &Smoother{k: k}
}

// Apply folds one raw sample into the smoothed drive and returns the result.
// Each band advances by (raw - smoothed) * k, a convex combination which keeps
// outputs in [0, 1] for inputs in [0, 1]. Called exactly once per frame.
//
// Parameters:
//   - raw: the raw band sample for this frame
//
// Returns:
//   - Drive: the updated smoothed drive
func (s *Smoother) Apply(raw BandSample) Drive {
	s.drive.Bass += (raw.Bass - s.drive.Bass) * s.k
	s.drive.Mid += (raw.Mid - s.drive.Mid) * s.k
	s.drive.High += (raw.High - s.drive.High) * s.k
	return s.drive
}

// Drive returns the current smoothed drive without advancing it.
//
// Returns:
//   - Drive: the current smoothed drive
func (s *Smoother) Drive() Drive {
	return s.drive
}

// Reset zeroes the smoothed drive, used when the scene is rebuilt after a
// context loss so the new scene fades in from rest.
func (s *Smoother) Reset() {
	s.drive = Drive{}
}
