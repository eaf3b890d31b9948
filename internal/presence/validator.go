package presence

// Validator decides whether a check-in claim is acceptable. It is a pure
// function of its inputs and safe for concurrent use.
type Validator struct {
	distance DistanceFunc
}

// NewValidator returns a Validator measuring with fn. A nil fn selects
// LegacyDistance.
func NewValidator(fn DistanceFunc) Validator {
	if fn == nil {
		fn = LegacyDistance
	}
	return Validator{distance: fn}
}

// Validate returns nil to accept the claim. Checks run in a fixed order and
// stop at the first failure: time window, duplicate, distance.
func (v Validator) Validate(ev Event, now, userLat, userLng int64, alreadyCheckedIn bool) error {
	// Both window ends are inclusive.
	if now < ev.StartsAt || now > ev.EndsAt {
		return ErrEventNotActive
	}
	if alreadyCheckedIn {
		return ErrAlreadyCheckedIn
	}
	if !v.InRange(ev, userLat, userLng) {
		return ErrOutOfRange
	}
	return nil
}

// InRange reports whether (userLat, userLng) lies inside the event geofence.
func (v Validator) InRange(ev Event, userLat, userLng int64) bool {
	d := v.Distance(ev, userLat, userLng)
	return d <= float64(ev.RadiusMeters)
}

// Distance returns the approximate distance in meters from the event center.
func (v Validator) Distance(ev Event, userLat, userLng int64) float64 {
	fn := v.distance
	if fn == nil {
		fn = LegacyDistance
	}
	return fn(delta(userLat, ev.Lat), delta(userLng, ev.Lng))
}
