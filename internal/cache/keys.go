package cache

import (
	"fmt"
	"strconv"
)

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}

func ChatHistoryKey(sessionID string) string {
	return fmt.Sprintf("chat:history:%s", sessionID)
}

// GeocodeKey rounds coordinates to about 10m so nearby lookups share an entry.
func GeocodeKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%s:%s",
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lon, 'f', 4, 64))
}
