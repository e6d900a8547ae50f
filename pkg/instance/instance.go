package instance

import "os"

// GetID returns the process instance identifier. MARKETPLACE_INSTANCE_ID wins,
// then the platform dyno name, then fallback.
func GetID(fallback string) string {
	for _, key := range []string{"MARKETPLACE_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if fallback == "" {
		return "local"
	}
	return fallback
}
