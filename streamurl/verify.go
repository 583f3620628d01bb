package streamurl

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Verify checks an authenticated URL the way the receiving media server
// does: it extracts txSecret and txTime, rejects an expired txTime and
// recomputes the digest for the stream name found in the URL.
func (g *Generator) Verify(rawURL, secretKey string, alg Algorithm) (*Token, error) {
	stream, tok, err := ParseAuthURL(rawURL)
	if err != nil {
		return nil, err
	}
	if tok.Digest == "" || tok.HexTime == "" {
		return nil, ErrSignatureNotFound
	}

	expires, err := tok.ExpiresAt()
	if err != nil {
		return nil, err
	}
	if g.now().After(expires) {
		return nil, ErrExpired
	}

	expected := Digest(secretKey, stream, tok.HexTime, alg)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(tok.Digest)), []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}
	return tok, nil
}

// ParseAuthURL extracts the stream name and whatever txSecret/txTime pair
// the URL carries. Either token field may be empty.
func ParseAuthURL(rawURL string) (stream string, tok *Token, err error) {
	if strings.HasPrefix(rawURL, "srt://") {
		return parseSRT(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "rtmp", "webrtc", "http", "https":
	default:
		return "", nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}

	stream = path.Base(u.Path)
	if u.Scheme == "http" || u.Scheme == "https" {
		stream = trimPlaybackExt(stream)
	}
	if stream == "" || stream == "." || stream == "/" {
		return "", nil, fmt.Errorf("%w: no stream name in path %q", ErrInvalidURL, u.Path)
	}

	q := u.Query()
	return stream, &Token{Digest: q.Get("txSecret"), HexTime: q.Get("txTime")}, nil
}

// trimPlaybackExt drops the one container extension the HTTP playback
// URLs append, so a stream called "cam.m3u8" survives its ".flv" URL.
func trimPlaybackExt(name string) string {
	for _, ext := range []string{".flv", ".m3u8"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// srtKeys are the streamid fields a verifiable SRT URL may carry.
var srtKeys = map[string]bool{
	"h": true, "r": true, "m": true, "s": true, "t": true, "u": true,
	"txSecret": true, "txTime": true,
}

// parseSRT reads the streamid of srt://host:port?streamid=#!::h=...,r=app/stream[,txSecret=...,txTime=...].
// The '#' in streamid would be taken as a fragment by net/url, so the value
// is split by hand. Fields are separated by ',' with no escaping, so a
// streamid whose app or stream name contains ',' cannot be split
// unambiguously: fields without '=', unknown keys and repeated keys are
// rejected with ErrInvalidURL instead of being guessed at.
func parseSRT(rawURL string) (string, *Token, error) {
	_, sid, ok := strings.Cut(rawURL, "streamid=")
	if !ok {
		return "", nil, fmt.Errorf("%w: srt URL without streamid", ErrInvalidURL)
	}
	sid = strings.TrimPrefix(sid, "#!::")

	var stream string
	tok := &Token{}
	seen := make(map[string]bool)
	for _, pair := range strings.Split(sid, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || !srtKeys[k] || seen[k] {
			return "", nil, fmt.Errorf("%w: ambiguous srt streamid field %q", ErrInvalidURL, pair)
		}
		seen[k] = true
		switch k {
		case "r":
			if i := strings.LastIndex(v, "/"); i >= 0 {
				v = v[i+1:]
			}
			stream = v
		case "txSecret":
			tok.Digest = v
		case "txTime":
			tok.HexTime = v
		}
	}
	if stream == "" {
		return "", nil, fmt.Errorf("%w: srt streamid without resource", ErrInvalidURL)
	}
	return stream, tok, nil
}
