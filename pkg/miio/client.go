package miio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	maxReadBuffer  = 4096
	// maxStaleReplies bounds how many out-of-order replies are skipped per request.
	maxStaleReplies = 3
)

// Client speaks the encrypted miIO JSON-RPC protocol with one device over UDP.
//
// Calls are synchronous and serialized; a single Client may be shared between goroutines.
type Client struct {
	address string
	suite   *cipherSuite
	timeout time.Duration

	mu          sync.Mutex
	discovered  bool
	deviceID    uint32
	deviceStamp uint32
	stampAt     time.Time
	requestID   int
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request read/write timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the device at address ("ip" or "ip:port") authenticated by
// the 32 hex character token.
func NewClient(address, token string, opts ...Option) (*Client, error) {
	suite, err := newCipherSuite(token)
	if err != nil {
		return nil, err
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, strconv.Itoa(defaultPort))
	}

	c := &Client{
		address: address,
		suite:   suite,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type response struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Call sends one JSON-RPC request and returns the raw result.
func (c *Client) Call(method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := net.DialTimeout("udp", c.address, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("miio: dial %s: %w", c.address, err)
	}
	defer conn.Close()

	if !c.discovered {
		if err := c.handshake(conn); err != nil {
			return nil, err
		}
	}

	result, err := c.exchange(conn, method, params)
	if err != nil {
		// Force a fresh handshake next time; the device may have rebooted.
		c.discovered = false
		return nil, err
	}
	return result, nil
}

func (c *Client) handshake(conn net.Conn) error {
	if err := c.write(conn, helloPacket()); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	buf, err := c.read(conn)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	hdr, err := parseHeader(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	c.deviceID = hdr.DeviceID
	c.deviceStamp = hdr.Stamp
	c.stampAt = time.Now()
	c.discovered = true
	return nil
}

func (c *Client) exchange(conn net.Conn, method string, params any) (json.RawMessage, error) {
	c.requestID++
	id := c.requestID

	payload, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("miio: encode request: %w", err)
	}

	stamp := c.deviceStamp + uint32(time.Since(c.stampAt)/time.Second)
	packet, err := c.suite.encode(c.deviceID, stamp, payload)
	if err != nil {
		return nil, err
	}
	if err := c.write(conn, packet); err != nil {
		return nil, err
	}

	for range maxStaleReplies {
		buf, err := c.read(conn)
		if err != nil {
			return nil, err
		}

		_, plain, err := c.suite.decode(buf)
		if err != nil {
			return nil, err
		}

		var resp response
		if err := json.Unmarshal(plain, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPacket, err)
		}
		if resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, &DeviceError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	}

	return nil, fmt.Errorf("%w: no reply with id %d", ErrInvalidPacket, id)
}

func (c *Client) write(conn net.Conn, p []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	_, err := conn.Write(p)
	return err
}

func (c *Client) read(conn net.Conn) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	buf := make([]byte, maxReadBuffer)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return buf[:n], nil
}
