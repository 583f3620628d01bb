// Package streamurl builds authenticated publish and playback URLs for live
// streaming CDNs that use the txSecret/txTime scheme.
//
// A URL is authenticated with two query values: txTime, the expiry as
// uppercase hexadecimal Unix seconds, and txSecret, the MD5 or SHA256 hex
// digest of secretKey+streamName+txTime.
//
//	urls, err := streamurl.GenerateAll(streamurl.Config{
//	    Domain:     "push.example.com",
//	    AppName:    "live",
//	    StreamName: "stream001",
//	    SecretKey:  "abc123",
//	    ExpireAt:   "2099-01-01 00:00:00",
//	    Algorithm:  streamurl.MD5,
//	}, streamurl.Publish)
//
// Verify checks such a URL the way the receiving media server does. SRT
// URLs carry the pair inside the streamid as ",txSecret=...,txTime=...";
// streamid fields are not escaped, so app and stream names containing ','
// produce SRT URLs that Verify rejects.
//
// Every function in this package is pure apart from reading the clock, and
// safe for concurrent use.
package streamurl
