package enums

// TrackingLocation is the coarse physical location projected from order status.
type TrackingLocation string

const (
	TrackingLocationWithCustomer TrackingLocation = "with_customer"
	TrackingLocationAtFacility   TrackingLocation = "at_facility"
	TrackingLocationInTransit    TrackingLocation = "in_transit"
	TrackingLocationDelivered    TrackingLocation = "delivered"
	TrackingLocationNone         TrackingLocation = "none"
)

var validTrackingLocations = []TrackingLocation{
	TrackingLocationWithCustomer,
	TrackingLocationAtFacility,
	TrackingLocationInTransit,
	TrackingLocationDelivered,
	TrackingLocationNone,
}

// String implements fmt.Stringer.
func (t TrackingLocation) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TrackingLocation.
func (t TrackingLocation) IsValid() bool {
	for _, candidate := range validTrackingLocations {
		if candidate == t {
			return true
		}
	}
	return false
}
