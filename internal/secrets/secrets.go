package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// Prefix marks a config value that must be opened before use.
const Prefix = "sealed:"

const (
	keyLen = 32
	info   = "skedda-booker credentials v1"
)

var ErrNoKey = errors.New("sealed value found but SKEDDA_CRED_KEY is not set")

// Box seals and opens named credential values with keys derived from one master key.
type Box struct{ sc *securecookie.SecureCookie }

// New derives the hash and block keys from master with HKDF-SHA256.
func New(master []byte) (*Box, error) {
	if len(master) < 16 {
		return nil, fmt.Errorf("master key too short (%d bytes, want at least 16)", len(master))
	}
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	hashKey := make([]byte, keyLen)
	blockKey := make([]byte, keyLen)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, err
	}
	sc := securecookie.New(hashKey, blockKey)
	// credentials live in files and CI secrets, not browsers
	sc.MaxAge(0)
	sc.MaxLength(0)
	return &Box{sc: sc}, nil
}

// FromBase64 decodes a master key as printed by GenerateKey.
func FromBase64(s string) (*Box, error) {
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if b, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
	}
	return New(b)
}

// GenerateKey returns a new random base64 master key.
func GenerateKey() (string, error) {
	b := make([]byte, keyLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Seal returns value encrypted and authenticated under name, with Prefix.
func (b *Box) Seal(name, value string) (string, error) {
	enc, err := b.sc.Encode(name, value)
	if err != nil {
		return "", err
	}
	return Prefix + enc, nil
}

// Open reverses Seal. The name must match the one used to seal.
func (b *Box) Open(name, sealed string) (string, error) {
	var v string
	if err := b.sc.Decode(name, strings.TrimPrefix(sealed, Prefix), &v); err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	return v, nil
}

func IsSealed(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), Prefix)
}

// Reveal opens v when it is sealed and returns it untouched otherwise.
// A nil box with a sealed value is an error.
func Reveal(b *Box, name, v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	if b == nil {
		return "", ErrNoKey
	}
	return b.Open(name, strings.TrimSpace(v))
}
