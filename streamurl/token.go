package streamurl

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExpiryLayout is the only accepted textual expiry format, always UTC.
const ExpiryLayout = "2006-01-02 15:04:05"

var expiryPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// Token is the txSecret/txTime pair appended to authenticated URLs.
type Token struct {
	HexTime string `json:"txTime"`
	Digest  string `json:"txSecret"`
}

// ExpiresAt decodes HexTime back into an instant.
func (t Token) ExpiresAt() (time.Time, error) {
	sec, err := strconv.ParseInt(t.HexTime, 16, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: txTime %q", ErrInvalidURL, t.HexTime)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// ParseExpiry parses an expiry string as UTC wall-clock time.
func ParseExpiry(expireAt string) (time.Time, error) {
	if !expiryPattern.MatchString(expireAt) {
		return time.Time{}, fmt.Errorf("%w: %q does not match YYYY-MM-DD HH:MM:SS", ErrInvalidTimeFormat, expireAt)
	}
	t, err := time.ParseInLocation(ExpiryLayout, expireAt, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
	}
	return t, nil
}

// FormatExpiry renders t in the canonical expiry format.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(ExpiryLayout)
}

// ExpireIn returns the canonical expiry string for now+d. Sub-second
// precision is dropped.
func ExpireIn(d time.Duration, now time.Time) string {
	return FormatExpiry(now.Add(d))
}

// HexTime converts an expiry string into uppercase hexadecimal Unix
// seconds without padding, e.g. "2099-01-01 00:00:00" -> "F2A52380".
func HexTime(expireAt string) (string, error) {
	t, err := ParseExpiry(expireAt)
	if err != nil {
		return "", err
	}
	sec := t.Unix()
	if sec < 0 {
		return "", fmt.Errorf("%w: %q precedes the Unix epoch", ErrInvalidTimeFormat, expireAt)
	}
	return strings.ToUpper(strconv.FormatInt(sec, 16)), nil
}

// Digest hashes secretKey+streamName+hexTime with no separators and returns
// lowercase hex. This is deliberately plain concatenation rather than HMAC:
// media servers validate exactly this construction.
//
// An empty algorithm means MD5; anything other than MD5 is hashed with SHA256.
func Digest(secretKey, streamName, hexTime string, alg Algorithm) string {
	plain := []byte(secretKey + streamName + hexTime)
	if alg.orDefault() == MD5 {
		sum := md5.Sum(plain)
		return hex.EncodeToString(sum[:])
	}
	sum := sha256.Sum256(plain)
	return hex.EncodeToString(sum[:])
}

// DeriveToken computes the hex time and digest for one configuration.
func DeriveToken(secretKey, streamName, expireAt string, alg Algorithm) (*Token, error) {
	hexTime, err := HexTime(expireAt)
	if err != nil {
		return nil, err
	}
	return &Token{
		HexTime: hexTime,
		Digest:  Digest(secretKey, streamName, hexTime, alg),
	}, nil
}
