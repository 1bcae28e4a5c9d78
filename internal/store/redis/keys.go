package redis

// Key layout for the health snapshot mirror. Everything the proxy writes
// lives under one prefix so external readers (and FLUSH-style cleanup) can
// address it without guessing.
const (
	KeyPrefix = "beacon:"

	// KeyHealthSnapshot holds the latest aggregate health map as JSON.
	KeyHealthSnapshot = KeyPrefix + "health:snapshot"
)
