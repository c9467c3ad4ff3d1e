package wire

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
)

const ivSize = 16

// helloRequiredFields and lsaRequiredFields gate MissingField rejection:
// a frame that decrypts and parses as JSON but omits one of these is
// discarded just like malformed JSON.
var helloRequiredFields = []string{"router_id", "sender_ipv4", "interface_hint", "known_neighbors", "capacity_mbps", "admin_active"}
var lsaRequiredFields = []string{"origin", "seq", "links"}

// Encode serializes msg to JSON, PKCS#7-pads it, and encrypts it with a
// fresh random IV under AES-256-CBC. Wire format: IV(16) || ciphertext.
func Encode(key []byte, msg Message) ([]byte, error) {
	var payload any
	switch msg.Kind {
	case KindHello:
		payload = msg.Hello
	case KindLsa:
		payload = msg.Lsa
	default:
		return nil, fmt.Errorf("wire: unknown message kind %q", msg.Kind)
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	plain = pkcs7Pad(plain, aes.BlockSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	cipherText := make([]byte, len(plain))
	cbc := cipher.NewCBCEncrypter(block, iv)
	cbc.CryptBlocks(cipherText, plain)

	out := make([]byte, 0, ivSize+len(cipherText))
	out = append(out, iv...)
	out = append(out, cipherText...)
	return out, nil
}

// Decode reverses Encode. Any structural problem yields a *DecodeError and
// a zero Message; callers must treat this as "drop the frame, count it",
// never as fatal.
func Decode(key []byte, frame []byte) (Message, error) {
	if len(frame) < ivSize+aes.BlockSize {
		return Message{}, errTooShort()
	}
	iv := frame[:ivSize]
	cipherText := frame[ivSize:]
	if len(cipherText)%aes.BlockSize != 0 {
		return Message{}, errTooShort()
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return Message{}, errBadPadding(err)
	}

	plain := make([]byte, len(cipherText))
	cbc := cipher.NewCBCDecrypter(block, iv)
	cbc.CryptBlocks(plain, cipherText)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return Message{}, errBadPadding(err)
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(plain, &generic); err != nil {
		return Message{}, errBadJson(err)
	}

	var kind string
	if err := json.Unmarshal(generic["kind"], &kind); err != nil {
		return Message{}, errBadJson(fmt.Errorf("kind: %w", err))
	}

	switch Kind(kind) {
	case KindHello:
		if err := requireFields(generic, helloRequiredFields); err != nil {
			return Message{}, err
		}
		var h Hello
		if err := json.Unmarshal(plain, &h); err != nil {
			return Message{}, errBadJson(err)
		}
		return Message{Kind: KindHello, Hello: &h}, nil
	case KindLsa:
		if err := requireFields(generic, lsaRequiredFields); err != nil {
			return Message{}, err
		}
		var l Lsa
		if err := json.Unmarshal(plain, &l); err != nil {
			return Message{}, errBadJson(err)
		}
		return Message{Kind: KindLsa, Lsa: &l}, nil
	default:
		return Message{}, errUnknownKind(kind)
	}
}

func requireFields(obj map[string]json.RawMessage, fields []string) error {
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return errMissingField(f)
		}
	}
	return nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("invalid padding byte %d", padLen)
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding bytes")
		}
	}
	return data[:n-padLen], nil
}
