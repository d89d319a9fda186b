package models

// SessionState is an enum for the lifecycle of the server transfer session
type SessionState int

const (
	// Idle indicates no request is in flight and no response is pending
	Idle SessionState = iota
	// Accumulating indicates a descriptor was written and request chunks are arriving
	Accumulating
	// Complete indicates every announced request byte arrived
	Complete
	// Handling indicates the application handler is processing the request
	Handling
	// Ready indicates a response is pending and no chunk of it was read yet
	Ready
	// Draining indicates response chunks are being read
	Draining
	// Failed indicates the application handler failed for the current request
	Failed
)

func (s SessionState) String() string {
	names := []string{"Idle", "Accumulating", "Complete", "Handling", "Ready", "Draining", "Failed"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Unknown"
	}
	return names[s]
}

// HasResponse tells whether a response length can be reported in this state
func (s SessionState) HasResponse() bool {
	return s == Ready || s == Draining
}
