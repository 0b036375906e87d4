package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/lanlight/internal/cipher"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/frame"
	"github.com/wheelibin/lanlight/internal/models"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrRequestTimeout   = errors.New("Request timeout")
	ErrRetriesExhausted = errors.New("connection reset, retries exhausted")
)

// TransportError wraps a network failure that is neither a timeout nor a reset.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// Identity is everything needed to reach and talk to one device.
type Identity struct {
	ID       string
	LocalKey string
	IP       string
}

type dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Observer receives exchange outcomes, see metrics.DeviceMetrics.
type Observer interface {
	ObserveExchange(command string, outcome string, elapsed time.Duration)
	ObserveRetry()
}

type nopObserver struct{}

func (nopObserver) ObserveExchange(string, string, time.Duration) {}
func (nopObserver) ObserveRetry() {}

type Option func(c *Client)

func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func WithDPS(dps DPS) Option {
	return func(c *Client) { c.dps = dps }
}

func WithDialer(d dialer) Option {
	return func(c *Client) { c.dialer = d }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithClock replaces the clock used for the "t" field of set requests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to a single device, opening a new TCP connection per request.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	logger   *log.Logger
	identity Identity
	codec    *frame.Codec

	port        int
	timeout     time.Duration
	maxAttempts int
	dps         DPS
	dialer      dialer
	observer    Observer
	now         func() time.Time
}

func NewClient(logger *log.Logger, identity Identity, opts ...Option) (*Client, error) {
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidArgument)
	}
	if identity.IP == "" {
		return nil, fmt.Errorf("%w: device ip is required", ErrInvalidArgument)
	}
	c, err := cipher.NewLocalKey(identity.LocalKey)
	if err != nil {
		return nil, fmt.Errorf("%w: local key: %w", ErrInvalidArgument, err)
	}

	client := &Client{
		logger:      logger,
		identity:    identity,
		codec:       frame.NewCodec(c),
		port:        constants.DevicePort,
		timeout:     constants.ConnectionTimeout,
		maxAttempts: constants.MaxAttempts,
		dps:         DefaultDPS,
		dialer:      &net.Dialer{},
		observer:    nopObserver{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.maxAttempts = max(1, client.maxAttempts)

	return client, nil
}

func (c *Client) Identity() Identity { return c.identity }

func (c *Client) DPS() DPS { return c.dps }

func (c *Client) address() string {
	return net.JoinHostPort(c.identity.IP, strconv.Itoa(c.port))
}

// Communicate sends a composed frame and parses the reply.
//
// A connection reset is retried straight away, up to maxAttempts in total.
// Timeouts and other transport failures are reported without retrying.
func (c *Client) Communicate(ctx context.Context, payload []byte) models.Result {
	command := commandName(payload)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		reply, err := c.exchange(ctx, payload)

		switch {
		case err == nil:
			result := c.codec.Parse(reply)
			if result.Err != nil {
				c.logger.Warn("device reply carries an error", "command", command, "err", result.Err)
			}
			c.observer.ObserveExchange(command, outcome(result), time.Since(start))
			return result

		case isConnectionReset(err):
			lastErr = err
			c.logger.Warn("connection reset by device", "attempt", attempt, "maxAttempts", c.maxAttempts)
			if attempt < c.maxAttempts {
				c.observer.ObserveRetry()
			}

		case isTimeout(err):
			c.logger.Errorf("request timeout, data length: %d, payload sent: %x", len(payload), payload)
			result := models.Result{
				Err: ErrRequestTimeout,
				Data: map[string]any{
					"length":       len(payload),
					"sent_payload": append([]byte(nil), payload...),
				},
			}
			c.observer.ObserveExchange(command, outcome(result), time.Since(start))
			return result

		default:
			c.logger.Error("error talking to device", "address", c.address(), "err", err)
			result := models.Result{Err: &TransportError{Err: err}}
			c.observer.ObserveExchange(command, outcome(result), time.Since(start))
			return result
		}
	}

	result := models.Result{Err: fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)}
	c.observer.ObserveExchange(command, outcome(result), time.Since(start))
	return result
}

// exchange runs one request over its own connection, which is always closed.
func (c *Client) exchange(ctx context.Context, payload []byte) ([]byte, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.address())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	c.logger.Debugf("sending %d bytes to %s: %x", len(payload), c.address(), payload)
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}

	buf := make([]byte, constants.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	c.logger.Debugf("received %d bytes: %x", n, buf[:n])
	return buf[:n], nil
}

func isConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func commandName(payload []byte) string {
	if len(payload) < 12 {
		return "unknown"
	}
	return frame.Command(payload[11]).String()
}

func outcome(r models.Result) string {
	var rcErr *frame.ReturnCodeError
	var decErr *frame.DecodeError
	switch {
	case r.Err == nil && r.Data != nil:
		return "ok"
	case r.Err == nil:
		return "ack"
	case errors.As(r.Err, &rcErr):
		return "return_code"
	case errors.As(r.Err, &decErr):
		return "decode"
	case errors.Is(r.Err, frame.ErrInvalidFraming), errors.Is(r.Err, frame.ErrLengthMismatch):
		return "framing"
	case errors.Is(r.Err, ErrRequestTimeout):
		return "timeout"
	case errors.Is(r.Err, ErrRetriesExhausted):
		return "reset"
	}
	return "transport"
}
