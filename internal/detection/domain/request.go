package domain

import (
	"net"
	"strings"
	"time"
)

// RequestContext carries the per-request signals the detection engine
// consumes. Absent signals (no Content-Length, no authenticated user) are
// zero values, not errors.
type RequestContext struct {
	SourceAddress  string
	Method         string
	Path           string // Full request URL path including the raw query
	UserAgent      string
	ContentLength  int64
	Referer        string
	AcceptLanguage string

	// Set only when the request was authenticated upstream.
	UserID   string
	Username string

	Timestamp time.Time
}

// Authenticated reports whether an upstream identity accompanies the request.
func (r *RequestContext) Authenticated() bool {
	return r.UserID != ""
}

// Location derives a coarse location bucket from the source address: the
// /16 prefix for IPv4 and the /32 prefix for IPv6. A stand-in for real
// geolocation that keeps the anomaly check deterministic and offline.
func (r *RequestContext) Location() string {
	ip := net.ParseIP(r.SourceAddress)
	if ip == nil {
		return "unknown"
	}

	if v4 := ip.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(16, 32))
		return masked.String() + "/16"
	}
	masked := ip.Mask(net.CIDRMask(32, 128))
	return masked.String() + "/32"
}

// UserAgentToken returns the leading product token of the user agent,
// lowercased: "Mozilla/5.0 (X11; Linux)" yields "mozilla/5.0".
func (r *RequestContext) UserAgentToken() string {
	fields := strings.Fields(r.UserAgent)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
