package streamurl

import (
	"fmt"
	"strings"
)

// Algorithm selects the hash used for the txSecret digest.
type Algorithm string

const (
	MD5    Algorithm = "MD5"
	SHA256 Algorithm = "SHA256"
)

// DefaultAlgorithm is used when a Config leaves Algorithm empty.
const DefaultAlgorithm = MD5

// DefaultAppName is the app name preset by the form and the CLI.
const DefaultAppName = "live"

// ParseAlgorithm accepts "md5", "sha256" and "sha-256" in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "MD5":
		return MD5, nil
	case "SHA256", "SHA-256":
		return SHA256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

func (a Algorithm) valid() bool {
	return a == "" || a == MD5 || a == SHA256
}

func (a Algorithm) orDefault() Algorithm {
	if a == "" {
		return DefaultAlgorithm
	}
	return a
}

// Direction distinguishes encoder-side (publish) from viewer-side
// (playback) URL sets.
type Direction string

const (
	Publish  Direction = "publish"
	Playback Direction = "playback"
)

// ParseDirection maps the route and flag spellings onto a Direction.
// "stream" and "push" mean Publish; "play" and "pull" mean Playback.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "publish", "push", "stream":
		return Publish, nil
	case "playback", "play", "pull":
		return Playback, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Protocol identifies one URL template. The string values double as the
// keys of a URLSet when serialised.
type Protocol string

const (
	RTMP         Protocol = "RTMP"
	WebRTC       Protocol = "WebRTC"
	SRT          Protocol = "SRT"
	RTMPOverSRT  Protocol = "RTMP_OVER_SRT"
	RTMPOverQUIC Protocol = "RTMP_OVER_QUIC"
	FLV          Protocol = "FLV"
	M3U8         Protocol = "M3U8"
)

// Fixed ports of the protocols that do not use the scheme default.
const (
	SRTPort          = 9000
	RTMPOverSRTPort  = 3570
	RTMPOverQUICPort = 443
)

var protocolSets = map[Direction][]Protocol{
	Publish:  {RTMP, WebRTC, SRT, RTMPOverSRT, RTMPOverQUIC},
	Playback: {RTMP, WebRTC, FLV, M3U8},
}

// Protocols returns the ordered protocol list of a direction, or nil for an
// unknown direction.
func Protocols(d Direction) []Protocol {
	set, ok := protocolSets[d]
	if !ok {
		return nil
	}
	out := make([]Protocol, len(set))
	copy(out, set)
	return out
}

// Supports reports whether p belongs to the direction's protocol set.
func (d Direction) Supports(p Protocol) bool {
	for _, candidate := range protocolSets[d] {
		if candidate == p {
			return true
		}
	}
	return false
}

// DisplayName is the human label shown next to a URL.
func (p Protocol) DisplayName() string {
	switch p {
	case RTMPOverSRT:
		return "RTMP over SRT"
	case RTMPOverQUIC:
		return "RTMP over QUIC"
	}
	return string(p)
}

// Config is the input of one generation call. JSON names match the
// payloads stored by earlier releases of the web form.
type Config struct {
	Domain     string    `json:"domain"`
	AppName    string    `json:"appName"`
	StreamName string    `json:"streamName"`
	SecretKey  string    `json:"key"`
	ExpireAt   string    `json:"expireTime"` // UTC, YYYY-MM-DD HH:MM:SS
	Algorithm  Algorithm `json:"encryption"`
}

// AuthEnabled reports whether both halves of the authentication settings
// are present.
func (c Config) AuthEnabled() bool {
	return c.SecretKey != "" && c.ExpireAt != ""
}

// URLSet maps each protocol of a direction to its composed URL.
type URLSet map[Protocol]string

// Ordered returns the URLs in the direction's canonical protocol order.
// Protocols missing from the set are skipped.
func (s URLSet) Ordered(d Direction) []NamedURL {
	var out []NamedURL
	for _, p := range protocolSets[d] {
		if u, ok := s[p]; ok {
			out = append(out, NamedURL{Protocol: p, URL: u})
		}
	}
	return out
}

// NamedURL pairs a protocol with its URL.
type NamedURL struct {
	Protocol Protocol `json:"protocol"`
	URL      string   `json:"url"`
}
