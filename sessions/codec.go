package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	sealVersion = 0x01
	saltLength  = 16
	nonceLength = 24

	// scrypt parameters for deriving the sealing key from the cookie
	// password. Interactive-login cost class.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// sealEnvelope is the JSON structure actually encrypted. IssuedAt allows
// an optional TTL check on unseal; the session's transient headers are
// excluded by the Session type itself.
type sealEnvelope struct {
	IssuedAt int64    `json:"iat"`
	Session  *Session `json:"session"`
}

// Codec seals and unseals session records using a password-derived
// symmetric key. By default seals do not expire; the cookie's own max-age
// governs session lifetime.
type Codec struct {
	password []byte
	ttl      time.Duration
	nowFunc  func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithTTL makes seals expire after d. Zero restores the default
// non-expiring behaviour.
func WithTTL(d time.Duration) CodecOption {
	return func(c *Codec) {
		c.ttl = d
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a Codec from the cookie password. The password must be
// at least 32 characters; shorter passwords are a configuration defect and
// rejected here as well as in the config resolver.
func NewCodec(password string, options ...CodecOption) (*Codec, error) {
	if len(password) < 32 {
		return nil, errors.New("[NewCodec] password must be at least 32 characters")
	}
	c := &Codec{
		password: []byte(password),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Seal encrypts the session record into an opaque string suitable for a
// cookie value. Transient headers are never included.
func (c *Codec) Seal(session *Session) (string, error) {
	if session == nil {
		return "", errors.New("[Codec.Seal] nil session")
	}

	plaintext, err := json.Marshal(sealEnvelope{
		IssuedAt: c.nowFunc().Unix(),
		Session:  session.Clone(),
	})
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] marshal envelope")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] rand salt")
	}

	key, err := c.deriveKey(salt)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] derive key")
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] rand nonce")
	}

	sealed := make([]byte, 0, 1+saltLength+nonceLength+len(plaintext)+secretbox.Overhead)
	sealed = append(sealed, sealVersion)
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce[:]...)
	sealed = secretbox.Seal(sealed, plaintext, &nonce, key)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts and authenticates a sealed value. An empty value yields
// ErrNoSession; a corrupt or forged value yields a *SealError; a seal past
// the configured TTL yields ErrSealExpired.
func (c *Codec) Unseal(sealed string) (*Session, error) {
	if sealed == "" {
		return nil, ErrNoSession
	}

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, &SealError{Cause: err}
	}
	if len(raw) < 1+saltLength+nonceLength+secretbox.Overhead {
		return nil, &SealError{Cause: errors.New("sealed value too short")}
	}
	if raw[0] != sealVersion {
		return nil, &SealError{Cause: errors.Errorf("unknown seal version %d", raw[0])}
	}

	salt := raw[1 : 1+saltLength]
	var nonce [nonceLength]byte
	copy(nonce[:], raw[1+saltLength:1+saltLength+nonceLength])
	box := raw[1+saltLength+nonceLength:]

	key, err := c.deriveKey(salt)
	if err != nil {
		return nil, &SealError{Cause: err}
	}

	plaintext, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return nil, &SealError{Cause: errors.New("authentication failed")}
	}

	var envelope sealEnvelope
	if err := json.Unmarshal(plaintext, &envelope); err != nil {
		return nil, &SealError{Cause: err}
	}
	if envelope.Session == nil {
		return nil, &SealError{Cause: errors.New("empty envelope")}
	}

	if c.ttl > 0 {
		issued := time.Unix(envelope.IssuedAt, 0)
		if c.nowFunc().After(issued.Add(c.ttl)) {
			return nil, ErrSealExpired
		}
	}

	return envelope.Session, nil
}

func (c *Codec) deriveKey(salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key(c.password, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}
