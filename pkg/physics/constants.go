package physics

// Physical constants (SI units)
const (
	G = 6.67430e-11   // Gravitational constant
	C = 299_792_458.0 // Speed of light in vacuum
)

// Reference masses (kg)
const (
	SagittariusAMass = 8.54e36    // Sagittarius A*
	SolarMass        = 1.98892e30 // The Sun
)

// SchwarzschildRadius returns the event-horizon radius 2GM/c² of a non-rotating mass.
// Callers must pass a positive mass; the constructors in this package enforce it.
func SchwarzschildRadius(mass float64) float64 {
	return 2.0 * G * mass / (C * C)
}
