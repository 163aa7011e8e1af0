package executor

import (
	"strings"
)

// Environment filtering for container execs.
// The host environment of the agent that invoked the hook must not leak
// into the container wholesale.

// envAllowlist contains variables that are safe to pass through.
var envAllowlist = map[string]bool{
	"PATH":       true,
	"LANG":       true,
	"LANGUAGE":   true,
	"LC_ALL":     true,
	"TERM":       true,
	"HOME":       true,
	"USER":       true,
	"SHELL":      true,
	"TZ":         true,
	"PYTHONPATH": true,
}

// envBlocklist contains variables that are never passed through,
// not even when listed in the configured passthrough.
var envBlocklist = map[string]bool{
	"LD_PRELOAD":                     true,
	"LD_LIBRARY_PATH":                true,
	"DOCKER_HOST":                    true,
	"DOCKER_CERT_PATH":               true,
	"KUBECONFIG":                     true,
	"AWS_ACCESS_KEY_ID":              true,
	"AWS_SECRET_ACCESS_KEY":          true,
	"GOOGLE_APPLICATION_CREDENTIALS": true,
}

// ScrubEnvironment filters "KEY=VALUE" entries through the allowlist,
// the extra passthrough keys and finally the blocklist.
func ScrubEnvironment(env []string, passthrough []string) []string {
	extra := make(map[string]bool, len(passthrough))
	for _, key := range passthrough {
		extra[key] = true
	}

	scrubbed := make([]string, 0, len(env))
	for _, entry := range env {
		key := envKey(entry)

		if envBlocklist[key] {
			continue
		}

		if envAllowlist[key] || extra[key] {
			scrubbed = append(scrubbed, entry)
		}
	}

	return scrubbed
}

// envKey extracts the key from a "KEY=VALUE" environment entry.
func envKey(entry string) string {
	if idx := strings.IndexByte(entry, '='); idx >= 0 {
		return entry[:idx]
	}
	return entry
}
