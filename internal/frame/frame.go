package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/wheelibin/lanlight/internal/cipher"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/models"
)

/*
Frame layout, all integers big-endian:

	000055aa 00000000000000 CC LLLLLLLL [VV..VV] DD..DD CCCCCCCC 0000aa55

	000055aa + 7 zero bytes  prefix
	CC                       command byte
	LLLLLLLL                 length of everything after this field
	VV..VV                   "3.3" padded with zeros, "set" requests only
	DD..DD                   AES-ECB encrypted JSON (replies: 4 byte return code first)
	CCCCCCCC                 CRC32 over all preceding bytes
	0000aa55                 suffix
*/

type Command byte

const (
	CommandSet Command = 0x07
	CommandGet Command = 0x0a
	// presence broadcast sent by devices over UDP
	CommandAnnounce Command = 0x13
)

func (c Command) String() string {
	switch c {
	case CommandSet:
		return "set"
	case CommandGet:
		return "get"
	case CommandAnnounce:
		return "announce"
	}
	return fmt.Sprintf("0x%02x", byte(c))
}

var (
	prefix = []byte{0x00, 0x00, 0x55, 0xaa, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	suffix = []byte{0x00, 0x00, 0xaa, 0x55}
)

const (
	// prefix + command byte + length
	headerSize = 16
	// crc + suffix
	trailerSize   = 8
	returnCodeLen = 4
	// "3.3" followed by 12 zero bytes
	versionHeaderSize = 15
)

var (
	ErrInvalidFraming = errors.New("invalid prefix/suffix")
	ErrLengthMismatch = errors.New("length mismatch")
)

// ReturnCodeError reports a non-zero return code in an otherwise well formed reply.
type ReturnCodeError struct {
	Code uint32
	Body []byte
}

func (e *ReturnCodeError) Error() string {
	return fmt.Sprintf("ReturnCode: %d Error: %x", e.Code, e.Body)
}

// DecodeError reports a reply body that did not decrypt to JSON.
type DecodeError struct {
	Plaintext string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding reply %q: %v", e.Plaintext, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Codec builds and reads frames for a single device key.
type Codec struct {
	cipher  *cipher.Cipher
	version []byte
}

func NewCodec(c *cipher.Cipher) *Codec {
	version := make([]byte, versionHeaderSize)
	copy(version, constants.ProtocolVersion)
	return &Codec{cipher: c, version: version}
}

// Compose builds a request frame for cmd carrying payload as encrypted JSON.
func (c *Codec) Compose(cmd Command, payload any) ([]byte, error) {
	encrypted, err := c.cipher.Encrypt(payload)
	if err != nil {
		return nil, err
	}

	// the query protocol takes an unversioned payload
	var body []byte
	if cmd != CommandGet {
		body = append(body, c.version...)
	}
	body = append(body, encrypted...)

	return assemble(cmd, body), nil
}

// ComposeReply builds the frame a device answers with. A nil payload produces
// a bare acknowledgement.
func (c *Codec) ComposeReply(cmd Command, returnCode uint32, payload any) ([]byte, error) {
	body := binary.BigEndian.AppendUint32(nil, returnCode)
	if payload != nil {
		encrypted, err := c.cipher.Encrypt(payload)
		if err != nil {
			return nil, err
		}
		body = append(body, encrypted...)
	}
	return assemble(cmd, body), nil
}

func assemble(cmd Command, body []byte) []byte {
	buf := make([]byte, 0, headerSize+len(body)+trailerSize)
	buf = append(buf, prefix...)
	buf = append(buf, byte(cmd))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)+trailerSize))
	buf = append(buf, body...)
	buf = binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
	buf = append(buf, suffix...)
	return buf
}

// Parse validates a reply frame and decodes its body. The CRC is not checked,
// devices are not consistent about it.
func (c *Codec) Parse(raw []byte) models.Result {
	result := models.Result{}

	if len(raw) < headerSize+trailerSize ||
		!bytes.Equal(raw[:4], prefix[:4]) ||
		!bytes.Equal(raw[len(raw)-4:], suffix) {
		result.Err = ErrInvalidFraming
		return result
	}

	size := binary.BigEndian.Uint32(raw[12:16])
	if int(size) != len(raw)-headerSize {
		result.Err = fmt.Errorf("%w: declared %d, got %d", ErrLengthMismatch, size, len(raw)-headerSize)
		return result
	}

	body := raw[headerSize : len(raw)-trailerSize]
	if len(body) >= returnCodeLen {
		result.ReturnCode = binary.BigEndian.Uint32(body[:returnCodeLen])
		body = body[returnCodeLen:]
	}
	if result.ReturnCode != 0 {
		// keep going, the body may still carry diagnostics
		result.Err = &ReturnCodeError{Code: result.ReturnCode, Body: raw[headerSize : len(raw)-trailerSize]}
	}

	result.Success = true
	body = trimPadding(body)
	if len(body) == 0 {
		result.Message = fmt.Sprintf("ReturnCode: %d", result.ReturnCode)
		return result
	}

	plaintext, err := c.cipher.Decrypt(body)
	if err != nil {
		result.Success = false
		result.Err = &DecodeError{Err: err}
		return result
	}

	// some firmware appends stray bytes after the JSON body
	end := bytes.LastIndexByte([]byte(plaintext), '}')
	if end < 0 {
		result.Success = false
		result.Err = &DecodeError{Plaintext: plaintext, Err: errors.New("no JSON object found")}
		return result
	}
	data := map[string]any{}
	if err := json.Unmarshal([]byte(plaintext[:end+1]), &data); err != nil {
		result.Success = false
		result.Err = &DecodeError{Plaintext: plaintext, Err: err}
		return result
	}
	result.Data = data
	return result
}

// trimPadding strips leading zero bytes. Zeros that belong to a ciphertext
// starting with 0x00 are given back so the result stays block aligned.
func trimPadding(body []byte) []byte {
	trimmed := bytes.TrimLeft(body, "\x00")
	if len(trimmed) == 0 {
		return nil
	}
	if rem := len(trimmed) % cipher.BlockSize; rem != 0 {
		restore := cipher.BlockSize - rem
		if stripped := len(body) - len(trimmed); restore <= stripped {
			return body[stripped-restore:]
		}
	}
	return trimmed
}
