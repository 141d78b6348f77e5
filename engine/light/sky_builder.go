package light

// SkyBuilderOption is a function that configures a Sky during construction.
type SkyBuilderOption func(*Sky)

// WithAngle sets the initial sun angle in degrees.
//
// Parameters:
//   - angle: the pivot pitch, 270 is midday
//
// Returns:
//   - SkyBuilderOption: option function to apply
func WithAngle(angle float32) SkyBuilderOption {
	return func(s *Sky) {
		s.angle = angle
	}
}

// WithHeading sets the pivot heading in degrees.
func WithHeading(heading float32) SkyBuilderOption {
	return func(s *Sky) {
		s.heading = heading
	}
}

// WithSpeed sets the animation speed in degrees per second. Negative values move the sun from
// midnight towards midday.
func WithSpeed(speed float32) SkyBuilderOption {
	return func(s *Sky) {
		s.speed = speed
	}
}

// WithAnimation sets whether Advance moves the sun.
func WithAnimation(enabled bool) SkyBuilderOption {
	return func(s *Sky) {
		s.animate = enabled
	}
}

// WithAmbient sets the ambient light color.
func WithAmbient(color [4]float32) SkyBuilderOption {
	return func(s *Sky) {
		s.ambient.SetColor(color)
	}
}
