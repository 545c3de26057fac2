package meetup

// Toggle flips membership of a ride in the selection set. Membership is
// keyed by vehicle id, so two visually identical vehicles stay distinct
// selections. Toggling the same ride twice returns an equal set.
func Toggle(selection []RideOption, ride RideOption) []RideOption {
	for i, sel := range selection {
		if sel.ID == ride.ID {
			return append(selection[:i:i], selection[i+1:]...)
		}
	}
	return append(selection[:len(selection):len(selection)], ride)
}

// IsSelected reports whether the ride is part of the selection.
func IsSelected(selection []RideOption, ride RideOption) bool {
	for _, sel := range selection {
		if sel.ID == ride.ID {
			return true
		}
	}
	return false
}
