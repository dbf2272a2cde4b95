// Package instance names the running process for lock owners and realtime
// fan-out.
package instance

import (
	"os"

	"github.com/angelmondragon/aerogourmet-backend/pkg/env"
)

const fallbackID = "instance-0"

// GetID returns AG_INSTANCE_ID or INSTANCE_ID when set, else the hostname.
func GetID() string {
	if id, ok := env.First("AG_INSTANCE_ID", "INSTANCE_ID"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
