package miio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned when the device token is not 32 hex characters.
	ErrInvalidToken = errors.New("miio: token must be 32 hex characters")

	// ErrInvalidPacket is returned for datagrams that are not miIO packets.
	ErrInvalidPacket = errors.New("miio: invalid packet")

	// ErrChecksumMismatch is returned when a packet fails MD5 verification.
	ErrChecksumMismatch = errors.New("miio: checksum mismatch")

	// ErrHandshakeFailed is returned when the device does not answer the hello packet.
	ErrHandshakeFailed = errors.New("miio: handshake failed")

	// ErrTimeout is returned when the device does not reply in time.
	ErrTimeout = errors.New("miio: request timed out")
)

// DeviceError is an error reported by the device in a JSON-RPC response.
type DeviceError struct {
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("miio: device error %d: %s", e.Code, e.Message)
}

// PropertyError is a non-zero MIoT property status code.
type PropertyError struct {
	DID  string
	Code int
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("miio: property %q returned code %d", e.DID, e.Code)
}
