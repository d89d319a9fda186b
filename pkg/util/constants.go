package util

const (
	// MTU is the ATT MTU requested by clients when connecting to a server
	MTU = 256
	// ChunkSize is the max number of message bytes carried by one request-data write or response-data read
	ChunkSize = 250
	// attWriteOverhead is the ATT opcode + handle prefix of a write request
	attWriteOverhead = 3
	// MaxChunkSize is the largest chunk that fits a single ATT write for MTU
	MaxChunkSize = MTU - attWriteOverhead

	// NoMessage is the response-length sentinel meaning no response is ready yet
	NoMessage int32 = -1
	// HandlerFailed is the response-length sentinel meaning the application handler failed for the current request
	HandlerFailed int32 = -2

	// ServiceUUID represents UUID for the ble service holding all transfer characteristics
	ServiceUUID = "12345678-1234-5678-1234-56789ABCDEF0"
	// RequestLengthUUID represents UUID for ble characteristic which clients write the request byte count to
	RequestLengthUUID = "12345678-1234-5678-1234-56789ABCDEF1"
	// RequestDataUUID represents UUID for ble characteristic which clients write request chunks to
	RequestDataUUID = "12345678-1234-5678-1234-56789ABCDEF2"
	// ResponseLengthUUID represents UUID for ble characteristic which clients poll for the response byte count
	ResponseLengthUUID = "12345678-1234-5678-1234-56789ABCDEF3"
	// ResponseDataUUID represents UUID for ble characteristic which clients read response chunks from
	ResponseDataUUID = "12345678-1234-5678-1234-56789ABCDEF4"
)

// TransferCharUUIDs lists every characteristic a server must expose for a transfer
var TransferCharUUIDs = []string{RequestLengthUUID, RequestDataUUID, ResponseLengthUUID, ResponseDataUUID}
