// Package discovery finds devices from the presence announcements they
// broadcast over UDP every few seconds.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/lanlight/internal/cipher"
	"github.com/wheelibin/lanlight/internal/concurrency"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/device"
)

var (
	ErrNotFound     = errors.New("device not found")
	ErrShortPacket  = errors.New("packet too short for an announcement")
	ErrNotAnnounced = errors.New("packet is not an announcement")
)

var framePrefix = []byte{0x00, 0x00, 0x55, 0xaa}

// Announcement is the JSON a device broadcasts.
type Announcement struct {
	IP         string `json:"ip"`
	GwID       string `json:"gwId"`
	Active     int    `json:"active"`
	Ability    int    `json:"ability"`
	Mode       int    `json:"mode"`
	Encrypt    bool   `json:"encrypt"`
	ProductKey string `json:"productKey"`
	Version    string `json:"version"`
}

type packetListener interface {
	ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error)
}

// Observer receives every decoded announcement, see metrics.DiscoveryMetrics.
type Observer interface {
	ObserveAnnouncement(port int, decoded bool)
}

type nopObserver struct{}

func (nopObserver) ObserveAnnouncement(int, bool) {}

type Option func(d *Discoverer)

func WithPorts(ports ...int) Option {
	return func(d *Discoverer) { d.ports = ports }
}

// WithDeadline bounds a whole Find or Scan.
func WithDeadline(deadline time.Duration) Option {
	return func(d *Discoverer) { d.deadline = deadline }
}

// WithReceiveTimeout bounds the wait for a single packet; a listener that
// hears nothing for this long gives up.
func WithReceiveTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) { d.receiveTimeout = timeout }
}

func WithListener(l packetListener) Option {
	return func(d *Discoverer) { d.listener = l }
}

func WithObserver(o Observer) Option {
	return func(d *Discoverer) { d.observer = o }
}

// WithClientOptions are applied to the client returned by Find.
func WithClientOptions(opts ...device.Option) Option {
	return func(d *Discoverer) { d.clientOpts = opts }
}

type Discoverer struct {
	logger         *log.Logger
	cipher         *cipher.Cipher
	ports          []int
	deadline       time.Duration
	receiveTimeout time.Duration
	listener       packetListener
	observer       Observer
	clientOpts     []device.Option
}

func NewDiscoverer(logger *log.Logger, opts ...Option) *Discoverer {
	d := &Discoverer{
		logger:         logger,
		cipher:         cipher.NewBroadcast(),
		ports:          []int{constants.DiscoveryPortPlain, constants.DiscoveryPortEncrypted},
		deadline:       constants.DiscoveryDeadline,
		receiveTimeout: constants.DiscoveryReceiveTimeout,
		listener:       &net.ListenConfig{},
		observer:       nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ports = lo.Uniq(d.ports)
	return d
}

// Find listens on every port until a device announces gwID, and returns a
// client for it at the announced address.
func (d *Discoverer) Find(ctx context.Context, gwID string, localKey string) (*device.Client, error) {
	if gwID == "" {
		return nil, fmt.Errorf("%w: device id is required", device.ErrInvalidArgument)
	}
	if _, err := cipher.NewLocalKey(localKey); err != nil {
		return nil, fmt.Errorf("%w: local key: %w", device.ErrInvalidArgument, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	d.logger.Info("Looking for device", "gwId", gwID, "ports", d.ports, "deadline", d.deadline)
	match := func(a Announcement) bool { return a.GwID == gwID }

	announcement, found, err := concurrency.FirstResult(ctx, d.listeners(match)...)
	if err != nil {
		return nil, fmt.Errorf("error listening for announcements: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gwID)
	}

	d.logger.Info("Found device", "gwId", gwID, "ip", announcement.IP, "version", announcement.Version)
	return device.NewClient(d.logger, device.Identity{ID: gwID, LocalKey: localKey, IP: announcement.IP}, d.clientOpts...)
}

// Scan collects every announcement heard before the deadline, keyed by gwId.
func (d *Discoverer) Scan(ctx context.Context) (map[string]Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	var mu sync.Mutex
	seen := map[string]Announcement{}
	collect := func(a Announcement) bool {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := seen[a.GwID]; !ok {
			d.logger.Info("Device announced", "gwId", a.GwID, "ip", a.IP, "version", a.Version)
		}
		seen[a.GwID] = a
		return false
	}

	_, _, err := concurrency.FirstResult(ctx, d.listeners(collect)...)
	if err != nil {
		return nil, fmt.Errorf("error listening for announcements: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return seen, nil
}

func (d *Discoverer) listeners(visit func(Announcement) bool) []func(context.Context) (Announcement, bool, error) {
	return lo.Map(d.ports, func(port int, _ int) func(context.Context) (Announcement, bool, error) {
		return func(ctx context.Context) (Announcement, bool, error) {
			return d.listen(ctx, port, visit)
		}
	})
}

// listen receives on one port until visit accepts an announcement, a receive
// times out, or ctx ends.
func (d *Discoverer) listen(ctx context.Context, port int, visit func(Announcement) bool) (Announcement, bool, error) {
	conn, err := d.listener.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		d.logger.Warn("Unable to listen for announcements", "port", port, "err", err)
		return Announcement{}, false, fmt.Errorf("port %d: %w", port, err)
	}
	defer conn.Close()

	// unblock a pending read once ctx ends
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, constants.ReadBufferSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(d.receiveTimeout)); err != nil {
			return Announcement{}, false, err
		}
		if ctx.Err() != nil {
			return Announcement{}, false, nil
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Announcement{}, false, nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				d.logger.Debug("No announcement within receive timeout", "port", port, "timeout", d.receiveTimeout)
				return Announcement{}, false, nil
			}
			return Announcement{}, false, fmt.Errorf("port %d: %w", port, err)
		}

		announcement, err := DecodeAnnouncement(d.cipher, buf[:n])
		d.observer.ObserveAnnouncement(port, err == nil)
		if err != nil {
			d.logger.Debug("Ignoring packet", "port", port, "from", from, "err", err)
			continue
		}
		d.logger.Debug("Announcement", "port", port, "gwId", announcement.GwID, "ip", announcement.IP)

		if visit(announcement) {
			return announcement, true, nil
		}
	}
}

// DecodeAnnouncement strips the frame envelope from a UDP packet and decodes
// the JSON inside. Encrypted bodies use the broadcast key; older firmware
// broadcasts plain JSON on 6666, which is accepted as is.
func DecodeAnnouncement(c *cipher.Cipher, packet []byte) (Announcement, error) {
	if len(packet) < constants.DiscoveryHeaderSize+constants.DiscoveryTrailerSize {
		return Announcement{}, ErrShortPacket
	}
	if !bytes.Equal(packet[:len(framePrefix)], framePrefix) {
		return Announcement{}, ErrNotAnnounced
	}
	body := packet[constants.DiscoveryHeaderSize : len(packet)-constants.DiscoveryTrailerSize]

	plaintext := bytes.TrimLeft(body, "\x00")
	if !bytes.HasPrefix(plaintext, []byte("{")) {
		decrypted, err := c.Decrypt(body)
		if err != nil {
			return Announcement{}, fmt.Errorf("error decrypting announcement: %w", err)
		}
		plaintext = []byte(decrypted)
	}
	if end := bytes.LastIndexByte(plaintext, '}'); end >= 0 {
		plaintext = plaintext[:end+1]
	}

	// a field of an unexpected type is left at its zero value, only gwId and ip
	// have to decode
	announcement := Announcement{}
	if err := json.Unmarshal(plaintext, &announcement); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || announcement.GwID == "" || announcement.IP == "" {
			return Announcement{}, fmt.Errorf("error decoding announcement: %w", err)
		}
	}
	if announcement.GwID == "" {
		return Announcement{}, fmt.Errorf("%w: no gwId", ErrNotAnnounced)
	}
	return announcement, nil
}
