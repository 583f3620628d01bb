package streamurl

import (
	"errors"
	"fmt"
	"time"
)

// Define standard errors for the package
var (
	ErrInvalidConfig        = errors.New("invalid stream configuration")
	ErrInvalidTimeFormat    = errors.New("invalid expiry time")
	ErrUnsupportedProtocol  = errors.New("unsupported protocol")
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
	ErrUnknownDirection     = errors.New("unknown direction")
	ErrInvalidURL           = errors.New("invalid URL")
	ErrSignatureNotFound    = errors.New("txSecret or txTime not found")
	ErrInvalidSignature     = errors.New("invalid txSecret")
	ErrExpired              = errors.New("URL has expired")
)

// Generator validates configurations and composes URL sets. The zero value
// is not usable; use New.
type Generator struct {
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = New()

// GenerateAll validates cfg and composes one URL per protocol of the
// direction using the wall clock.
func GenerateAll(cfg Config, dir Direction) (URLSet, error) {
	return defaultGenerator.GenerateAll(cfg, dir)
}

// Validate checks cfg against the wall clock.
func Validate(cfg Config) ValidationResult {
	return defaultGenerator.Validate(cfg)
}

// Verify checks an authenticated URL against the wall clock.
func Verify(rawURL, secretKey string, alg Algorithm) (*Token, error) {
	return defaultGenerator.Verify(rawURL, secretKey, alg)
}

// GenerateAll validates cfg, derives the token once when authentication is
// configured and composes every URL of the direction. An invalid cfg yields
// a *ValidationError listing every violated rule.
func (g *Generator) GenerateAll(cfg Config, dir Direction) (URLSet, error) {
	protocols, ok := protocolSets[dir]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}

	if res := g.Validate(cfg); !res.Valid {
		return nil, &ValidationError{Messages: res.Errors}
	}

	var tok *Token
	if cfg.AuthEnabled() {
		var err error
		tok, err = DeriveToken(cfg.SecretKey, cfg.StreamName, cfg.ExpireAt, cfg.Algorithm)
		if err != nil {
			return nil, err
		}
	}

	urls := make(URLSet, len(protocols))
	for _, p := range protocols {
		u, err := ComposeFor(dir, p, cfg.Domain, cfg.AppName, cfg.StreamName, tok)
		if err != nil {
			return nil, err
		}
		urls[p] = u
	}
	return urls, nil
}

// ComposeFor is ComposeURL restricted to the protocol set of dir.
func ComposeFor(dir Direction, p Protocol, domain, appName, streamName string, tok *Token) (string, error) {
	if !dir.Supports(p) {
		return "", fmt.Errorf("%w: %s for %s", ErrUnsupportedProtocol, p, dir)
	}
	return ComposeURL(p, domain, appName, streamName, tok)
}

// ComposeURL builds the URL of one protocol. A nil tok yields the
// unauthenticated form.
//
// SRT carries its credentials inside the streamid value as extra
// comma-separated pairs; every other protocol gets a
// ?txSecret=...&txTime=... query string.
func ComposeURL(p Protocol, domain, appName, streamName string, tok *Token) (string, error) {
	var base string
	switch p {
	case RTMP:
		base = fmt.Sprintf("rtmp://%s/%s/%s", domain, appName, streamName)
	case WebRTC:
		base = fmt.Sprintf("webrtc://%s/%s/%s", domain, appName, streamName)
	case SRT:
		u := fmt.Sprintf("srt://%s:%d?streamid=#!::h=%s,r=%s/%s", domain, SRTPort, domain, appName, streamName)
		if tok != nil {
			u += fmt.Sprintf(",txSecret=%s,txTime=%s", tok.Digest, tok.HexTime)
		}
		return u, nil
	case RTMPOverSRT:
		base = fmt.Sprintf("rtmp://%s:%d/%s/%s", domain, RTMPOverSRTPort, appName, streamName)
	case RTMPOverQUIC:
		base = fmt.Sprintf("rtmp://%s:%d/%s/%s", domain, RTMPOverQUICPort, appName, streamName)
	case FLV:
		base = fmt.Sprintf("http://%s/%s/%s.flv", domain, appName, streamName)
	case M3U8:
		base = fmt.Sprintf("http://%s/%s/%s.m3u8", domain, appName, streamName)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, p)
	}

	if tok == nil {
		return base, nil
	}
	return fmt.Sprintf("%s?txSecret=%s&txTime=%s", base, tok.Digest, tok.HexTime), nil
}
