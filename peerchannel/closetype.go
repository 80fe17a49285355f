package peerchannel

// CloseType classifies why a PeerChannel closed, for the address book
// (outside the core) to turn into a reputation adjustment. It is reported
// through OnClose, never sent over the wire.
type CloseType int

const (
	// CloseNormal is a clean, locally-initiated close.
	CloseNormal CloseType = iota
	// CloseTimeout is a reply awaited via ExpectMessage that did not arrive
	// within its timeout.
	CloseTimeout
	// CloseNetworkError is the underlying DataChannel closing with an error,
	// such as a tag gap or framing violation it detected.
	CloseNetworkError
	// CloseInvalidMessage is a message that parsed but failed semantic
	// checks the PeerChannel itself enforces (e.g. an unexpected reply).
	CloseInvalidMessage
	// CloseFailedToParseMessageType is a frame that could not be parsed at
	// all, or a REJECT that itself failed to parse. PeerChannel never sends
	// a REJECT in response to this close reason; see the reject-loop-safety
	// rule on PeerChannel.handleFrame.
	CloseFailedToParseMessageType
	// CloseProtocolViolation is a peer that violated the expect/confirm
	// contract, e.g. replying to a request it was never sent.
	CloseProtocolViolation
	// CloseManualBan is an operator- or address-book-initiated ban.
	CloseManualBan
)

func (c CloseType) String() string {
	switch c {
	case CloseNormal:
		return "NORMAL"
	case CloseTimeout:
		return "TIMEOUT"
	case CloseNetworkError:
		return "NETWORK_ERROR"
	case CloseInvalidMessage:
		return "INVALID_MESSAGE"
	case CloseFailedToParseMessageType:
		return "FAILED_TO_PARSE_MESSAGE_TYPE"
	case CloseProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case CloseManualBan:
		return "MANUAL_BAN"
	default:
		return "UNKNOWN"
	}
}
