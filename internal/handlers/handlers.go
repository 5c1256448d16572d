package handlers

import "time"

// timestamp formats the current time the way the mobile client expects,
// matching JavaScript's Date.toISOString().
func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
