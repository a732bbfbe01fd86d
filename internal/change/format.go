package change

import "strconv"

// FormatInt renders an integer value for the change log.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// FormatFloat renders a float with the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptionalInt renders nil as the empty string.
func FormatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return FormatInt(*v)
}

// FormatOptionalFloat renders nil as the empty string.
func FormatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

// FormatOptionalString renders nil as the empty string.
func FormatOptionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
