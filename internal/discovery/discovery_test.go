package discovery_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wheelibin/lanlight/internal/cipher"
	"github.com/wheelibin/lanlight/internal/device"
	"github.com/wheelibin/lanlight/internal/discovery"
	"github.com/wheelibin/lanlight/internal/frame"
	"github.com/wheelibin/lanlight/mocks"
)

const (
	targetID = "bf0123456789abcdef"
	localKey = "0123456789abcdef"
)

func announcement(gwID, ip string) map[string]any {
	return map[string]any{
		"ip": ip, "gwId": gwID, "active": 2, "ability": 0, "mode": 0,
		"encrypt": true, "productKey": "keyjup78v54myhan", "version": "3.3",
	}
}

func encryptedPacket(t *testing.T, payload map[string]any) []byte {
	raw, err := frame.NewCodec(cipher.NewBroadcast()).ComposeReply(frame.CommandAnnounce, 0, payload)
	require.NoError(t, err)
	return raw
}

func plainPacket(t *testing.T, payload map[string]any) []byte {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	raw := []byte{0x00, 0x00, 0x55, 0xaa, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x12}
	raw = binary.BigEndian.AppendUint32(raw, uint32(4+len(body)+8))
	raw = binary.BigEndian.AppendUint32(raw, 0)
	raw = append(raw, body...)
	raw = binary.BigEndian.AppendUint32(raw, crc32.ChecksumIEEE(raw))
	return append(raw, 0x00, 0x00, 0xaa, 0x55)
}

// boundPorts stands in for the discovery ports with loopback sockets on
// ephemeral ports.
func boundPorts(t *testing.T, listener *mocks.MockDiscoveryPacketListener, ports ...int) map[int]net.PacketConn {
	conns := map[int]net.PacketConn{}
	for _, port := range ports {
		conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		conns[port] = conn
		listener.On("ListenPacket", mock.Anything, "udp4", portAddress(port)).Return(conn, nil).Once()
	}
	return conns
}

func portAddress(port int) string {
	return ":" + strconv.Itoa(port)
}

func send(t *testing.T, to net.PacketConn, packet []byte) {
	sender, err := net.Dial("udp4", to.LocalAddr().String())
	require.NoError(t, err)
	defer sender.Close()
	_, err = sender.Write(packet)
	require.NoError(t, err)
}

func newDiscoverer(listener *mocks.MockDiscoveryPacketListener, opts ...discovery.Option) *discovery.Discoverer {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	return discovery.NewDiscoverer(logger, append([]discovery.Option{discovery.WithListener(listener)}, opts...)...)
}

func Test_Find(t *testing.T) {

	t.Run("match on the encrypted port returns a client for the announced address", func(t *testing.T) {
		// arrange
		listener := mocks.NewMockDiscoveryPacketListener(t)
		conns := boundPorts(t, listener, 6666, 6667)
		send(t, conns[6666], plainPacket(t, announcement("someoneelse", "192.168.1.9")))
		send(t, conns[6667], encryptedPacket(t, announcement("another", "192.168.1.10")))
		send(t, conns[6667], encryptedPacket(t, announcement(targetID, "192.168.1.50")))

		d := newDiscoverer(listener, discovery.WithDeadline(2*time.Second))

		// act
		client, err := d.Find(context.Background(), targetID, localKey)

		// assert
		require.NoError(t, err)
		assert.Equal(t, device.Identity{ID: targetID, LocalKey: localKey, IP: "192.168.1.50"}, client.Identity())
	})

	t.Run("plain announcement on 6666 is accepted", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)
		conns := boundPorts(t, listener, 6666, 6667)
		send(t, conns[6666], plainPacket(t, announcement(targetID, "192.168.1.51")))

		d := newDiscoverer(listener, discovery.WithDeadline(2*time.Second))

		client, err := d.Find(context.Background(), targetID, localKey)

		require.NoError(t, err)
		assert.Equal(t, "192.168.1.51", client.Identity().IP)
	})

	t.Run("no match before the deadline", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)
		conns := boundPorts(t, listener, 6666, 6667)
		send(t, conns[6667], encryptedPacket(t, announcement("another", "192.168.1.10")))

		d := newDiscoverer(listener, discovery.WithDeadline(150*time.Millisecond))

		start := time.Now()
		client, err := d.Find(context.Background(), targetID, localKey)

		assert.Nil(t, client)
		assert.ErrorIs(t, err, discovery.ErrNotFound)
		// waits out the whole deadline, the receive timeout is far longer
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("receive timeout ends the listeners", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)
		boundPorts(t, listener, 6666, 6667)

		d := newDiscoverer(listener, discovery.WithReceiveTimeout(50*time.Millisecond))

		start := time.Now()
		_, err := d.Find(context.Background(), targetID, localKey)

		assert.ErrorIs(t, err, discovery.ErrNotFound)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("one port unavailable, the other still listens", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)
		listener.On("ListenPacket", mock.Anything, "udp4", ":6666").Return(nil, errors.New("address already in use")).Once()
		conns := boundPorts(t, listener, 6667)
		send(t, conns[6667], encryptedPacket(t, announcement(targetID, "192.168.1.52")))

		d := newDiscoverer(listener, discovery.WithDeadline(2*time.Second))

		client, err := d.Find(context.Background(), targetID, localKey)

		require.NoError(t, err)
		assert.Equal(t, "192.168.1.52", client.Identity().IP)
	})

	t.Run("every port unavailable", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)
		listener.On("ListenPacket", mock.Anything, "udp4", mock.Anything).Return(nil, errors.New("address already in use")).Twice()

		d := newDiscoverer(listener)

		_, err := d.Find(context.Background(), targetID, localKey)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, discovery.ErrNotFound)
	})

	t.Run("invalid local key fails before listening", func(t *testing.T) {
		listener := mocks.NewMockDiscoveryPacketListener(t)

		d := newDiscoverer(listener)

		_, err := d.Find(context.Background(), targetID, "short")

		assert.ErrorIs(t, err, device.ErrInvalidArgument)
		listener.AssertNotCalled(t, "ListenPacket", mock.Anything, mock.Anything, mock.Anything)
	})
}

func Test_Scan(t *testing.T) {
	listener := mocks.NewMockDiscoveryPacketListener(t)
	conns := boundPorts(t, listener, 6666, 6667)
	send(t, conns[6666], plainPacket(t, announcement("plain", "192.168.1.20")))
	send(t, conns[6667], encryptedPacket(t, announcement("encrypted", "192.168.1.21")))
	send(t, conns[6667], []byte("noise"))

	d := newDiscoverer(listener, discovery.WithDeadline(200*time.Millisecond))

	found, err := d.Scan(context.Background())

	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "192.168.1.20", found["plain"].IP)
	assert.Equal(t, "192.168.1.21", found["encrypted"].IP)
	assert.True(t, found["encrypted"].Encrypt)
}

func Test_DecodeAnnouncement(t *testing.T) {
	broadcast := cipher.NewBroadcast()
	payload := announcement(targetID, "10.0.0.7")

	tests := []struct {
		name        string
		packet      []byte
		expectedErr error
	}{
		{name: "encrypted", packet: encryptedPacket(t, payload)},
		{name: "plain", packet: plainPacket(t, payload)},
		{name: "too short", packet: []byte{0x00, 0x00, 0x55, 0xaa}, expectedErr: discovery.ErrShortPacket},
		{name: "not a frame", packet: make([]byte, 64), expectedErr: discovery.ErrNotAnnounced},
		{name: "missing gwId", packet: encryptedPacket(t, map[string]any{"ip": "10.0.0.7"}), expectedErr: discovery.ErrNotAnnounced},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a, err := discovery.DecodeAnnouncement(broadcast, test.packet)

			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, discovery.Announcement{
				IP: "10.0.0.7", GwID: targetID, Active: 2, Encrypt: true,
				ProductKey: "keyjup78v54myhan", Version: "3.3",
			}, a)
		})
	}

	t.Run("optional fields of an unexpected type are ignored", func(t *testing.T) {
		odd := announcement(targetID, "10.0.0.8")
		odd["version"] = 3.3
		odd["encrypt"] = "yes"

		a, err := discovery.DecodeAnnouncement(broadcast, encryptedPacket(t, odd))

		require.NoError(t, err)
		assert.Equal(t, discovery.Announcement{
			IP: "10.0.0.8", GwID: targetID, Active: 2, ProductKey: "keyjup78v54myhan",
		}, a)
	})

	t.Run("gwId of an unexpected type is rejected", func(t *testing.T) {
		odd := announcement(targetID, "10.0.0.8")
		odd["gwId"] = 42

		_, err := discovery.DecodeAnnouncement(broadcast, plainPacket(t, odd))

		assert.Error(t, err)
	})

	t.Run("encrypted with the wrong key", func(t *testing.T) {
		other, _ := cipher.NewLocalKey(localKey)
		raw, err := frame.NewCodec(other).ComposeReply(frame.CommandAnnounce, 0, payload)
		require.NoError(t, err)

		_, err = discovery.DecodeAnnouncement(broadcast, raw)
		assert.Error(t, err)
	})
}
