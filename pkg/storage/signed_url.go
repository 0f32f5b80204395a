package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed or tampered download tokens.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned once a token passes its expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadToken is the payload carried by a signed export link.
type DownloadToken struct {
	TimetableID string
	Path        string
	ExpiresAt   time.Time
}

// SignedURLSigner issues HMAC-signed tokens pointing at stored exports.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A zero ttl defaults to one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token of the form id.expiry.path.signature.
func (s *SignedURLSigner) Generate(timetableID, relPath string) (string, time.Time, error) {
	if timetableID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("timetable id and path required")
	}
	if strings.Contains(timetableID, ".") {
		return "", time.Time{}, fmt.Errorf("timetable id %q must not contain '.'", timetableID)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(timetableID, ts, encodedPath)
	return strings.Join([]string{timetableID, ts, encodedPath, signature}, "."), expiresAt, nil
}

// Parse validates the signature and expiry of a token.
func (s *SignedURLSigner) Parse(token string) (DownloadToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadToken{}, ErrInvalidToken
	}
	id, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(id, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return DownloadToken{}, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return DownloadToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return DownloadToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	parsed := DownloadToken{TimetableID: id, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(parsed.ExpiresAt) {
		return parsed, ErrTokenExpired
	}
	return parsed, nil
}

func (s *SignedURLSigner) sign(id, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
