package common

import "strconv"

// FormatCoordinate renders a coordinate in degrees with 4 decimals (~11 m),
// which is what outbound weather and geolocation queries are keyed by.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
