package instance

import "os"

// ID names this process in logs. WORKER_ID wins over the platform's DYNO.
func ID(fallback string) string {
	for _, key := range []string{"WORKER_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallback
}
