package instance

import "os"

// GetID returns the process instance identifier used in startup logs and cron
// lock ownership, falling back to the hostname.
func GetID() string {
	for _, key := range []string{"DORM_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
