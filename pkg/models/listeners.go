package models

// BLEServerStatus is an enum for all possible status conditions for ble server
type BLEServerStatus int

const (
	// Running indicates ble server is advertising and serving transfers
	Running BLEServerStatus = iota
	// Stopped indicates ble server was shut down by its owner
	Stopped
	// Crashed indicates ble server is not running and has returned error in execution
	Crashed
)

func (s BLEServerStatus) String() string {
	return []string{"Running", "Stopped", "Crashed"}[s]
}

// BLEServerListener receives server lifecycle and transfer session events
type BLEServerListener interface {
	OnServerStatusChanged(BLEServerStatus, error)
	OnSessionStateChanged(transferID string, state SessionState)
	OnInternalError(error)
}

// BLEClientListener receives client connection events
type BLEClientListener interface {
	OnConnected(addr string)
	OnDisconnected()
	OnInternalError(error)
}
