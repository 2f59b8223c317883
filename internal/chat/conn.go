package chat

// Conn is the durable-connection handle the chat core pushes events through. The
// websocket layer owns framing, heartbeats and reconnect policy; the core only needs
// an identity and a non-blocking send. SendEvent returns an error when the connection
// is gone or its outbound buffer is full; callers log and move on, they never retry.
type Conn interface {
	ID() string
	SendEvent(event string, data interface{}) error
}
