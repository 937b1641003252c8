package miio

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	headerSize  = 32
	magic       = 0x2131
	defaultPort = 54321
)

// Header is the fixed 32-byte miIO packet header.
type Header struct {
	Length   uint16
	Unknown  uint32
	DeviceID uint32
	Stamp    uint32
	Checksum [16]byte
}

// cipherSuite holds the AES-128-CBC parameters derived from a device token.
type cipherSuite struct {
	token []byte
	key   []byte
	iv    []byte
}

// newCipherSuite derives key = MD5(token) and iv = MD5(key || token).
func newCipherSuite(tokenHex string) (*cipherSuite, error) {
	if len(tokenHex) != 32 {
		return nil, ErrInvalidToken
	}
	token, err := hex.DecodeString(tokenHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	key := md5.Sum(token)
	iv := md5.Sum(append(key[:], token...))

	return &cipherSuite{token: token, key: key[:], iv: iv[:]}, nil
}

func (cs *cipherSuite) encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(cs.key)
	if err != nil {
		return nil, err
	}

	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := make([]byte, len(plain)+pad)
	copy(padded, plain)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, cs.iv).CryptBlocks(out, padded)
	return out, nil
}

func (cs *cipherSuite) decrypt(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: payload length %d", ErrInvalidPacket, len(data))
	}

	block, err := aes.NewCipher(cs.key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, cs.iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(out) {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidPacket)
	}
	out = out[:len(out)-pad]

	// Devices terminate JSON with a NUL byte.
	return bytes.TrimRight(out, "\x00"), nil
}

// helloPacket is sent to discover the device id and stamp.
func helloPacket() []byte {
	p := bytes.Repeat([]byte{0xff}, headerSize)
	binary.BigEndian.PutUint16(p[0:2], magic)
	binary.BigEndian.PutUint16(p[2:4], headerSize)
	return p
}

// encode builds an encrypted request packet.
func (cs *cipherSuite) encode(deviceID, stamp uint32, payload []byte) ([]byte, error) {
	encrypted, err := cs.encrypt(payload)
	if err != nil {
		return nil, err
	}

	p := make([]byte, headerSize+len(encrypted))
	binary.BigEndian.PutUint16(p[0:2], magic)
	binary.BigEndian.PutUint16(p[2:4], uint16(len(p)))
	binary.BigEndian.PutUint32(p[4:8], 0)
	binary.BigEndian.PutUint32(p[8:12], deviceID)
	binary.BigEndian.PutUint32(p[12:16], stamp)
	copy(p[headerSize:], encrypted)

	sum := cs.checksum(p[:16], encrypted)
	copy(p[16:32], sum[:])
	return p, nil
}

func (cs *cipherSuite) checksum(head, encrypted []byte) [16]byte {
	h := md5.New()
	h.Write(head)
	h.Write(cs.token)
	h.Write(encrypted)

	var sum [16]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// parseHeader validates magic and length and returns the header.
func parseHeader(p []byte) (Header, error) {
	var hdr Header
	if len(p) < headerSize {
		return hdr, fmt.Errorf("%w: %d bytes", ErrInvalidPacket, len(p))
	}
	if binary.BigEndian.Uint16(p[0:2]) != magic {
		return hdr, fmt.Errorf("%w: bad magic", ErrInvalidPacket)
	}

	hdr.Length = binary.BigEndian.Uint16(p[2:4])
	if int(hdr.Length) != len(p) {
		return hdr, fmt.Errorf("%w: length %d, got %d bytes", ErrInvalidPacket, hdr.Length, len(p))
	}
	hdr.Unknown = binary.BigEndian.Uint32(p[4:8])
	hdr.DeviceID = binary.BigEndian.Uint32(p[8:12])
	hdr.Stamp = binary.BigEndian.Uint32(p[12:16])
	copy(hdr.Checksum[:], p[16:32])
	return hdr, nil
}

// decode verifies and decrypts a response packet.
func (cs *cipherSuite) decode(p []byte) (Header, []byte, error) {
	hdr, err := parseHeader(p)
	if err != nil {
		return hdr, nil, err
	}

	encrypted := p[headerSize:]
	if len(encrypted) == 0 {
		return hdr, nil, nil
	}
	if cs.checksum(p[:16], encrypted) != hdr.Checksum {
		return hdr, nil, ErrChecksumMismatch
	}

	payload, err := cs.decrypt(encrypted)
	if err != nil {
		return hdr, nil, err
	}
	return hdr, payload, nil
}
