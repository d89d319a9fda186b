package client

// TransferPhase is the step a SendMessage call is in
type TransferPhase int

const (
	// Sending covers the request-length write and every request chunk write
	Sending TransferPhase = iota
	// Polling covers response-length reads until the server answers
	Polling
	// Receiving covers response chunk reads
	Receiving
)

func (p TransferPhase) String() string {
	switch p {
	case Sending:
		return "send"
	case Polling:
		return "poll"
	case Receiving:
		return "receive"
	}
	return "unknown"
}
