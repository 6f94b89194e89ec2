package ir

// Version constants for the definition schema and engine.
const (
	// IRVersion is the choreography definition schema version.
	IRVersion = "1"

	// EngineVersion is the choreo engine version.
	EngineVersion = "0.1.0"
)
