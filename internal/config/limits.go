package config

const (
	// MaxRequestBodyBytes caps JSON request bodies. Replay requests carry a
	// full transcript, so this is generous.
	MaxRequestBodyBytes = 10 << 20
)
