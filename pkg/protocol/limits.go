package protocol

// MaxFrameSize is the default maximum size of an inbound frame (64KB).
// It matches the read limit the websocket transport installs on its
// connection, so a frame that reaches the decoder larger than this came
// from a transport configured with a bigger limit.
const MaxFrameSize = 64 * 1024
