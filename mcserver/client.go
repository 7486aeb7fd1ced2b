package mcserver

// Packet is a raw (id, payload) pair handed across the play-state boundary.
// The core does not decode Play packets itself (see protocol.Codec's
// pass-through behavior in StatePlay), so the game layer receives and
// sends packets in this undecoded form.
type Packet struct {
	ID      int32
	Payload []byte
}

// inboundBuffer and outboundBuffer size the bounded channels a Client
// hands to the game layer. Unlike the status-request/new-client sinks,
// these are not rendezvous channels: the login flow does not want a slow
// game tick to stall the connection's read loop.
const (
	inboundBuffer  = 64
	outboundBuffer = 64
)

// Client is created exactly once, at login success, and owned by the game
// layer from that point on.
type Client struct {
	Username string
	Inbound  <-chan Packet
	Outbound chan<- Packet

	inbound  chan Packet
	outbound chan Packet
}

func newClient(username string) *Client {
	c := &Client{
		Username: username,
		inbound:  make(chan Packet, inboundBuffer),
		outbound: make(chan Packet, outboundBuffer),
	}
	c.Inbound = c.inbound
	c.Outbound = c.outbound
	return c
}
