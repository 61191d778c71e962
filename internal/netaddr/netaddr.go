// Package netaddr canonicalizes textual IPv4 address and network tokens
// into the keys used by the lookup cache.
package netaddr

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned for tokens that are not an IPv4 address or
// IPv4 CIDR network.
var ErrInvalidAddress = errors.New("invalid address")

// Normalize canonicalizes a token into a cache key. Leading zeros in octets
// are accepted ("010.0.0.1" and "10.0.0.1" share one key), "/32" collapses to
// the bare address, and networks are masked to their canonical form.
func Normalize(token string) (string, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidAddress)
	}

	host, maskPart, hasMask := strings.Cut(s, "/")
	addr, err := parseIPv4(host)
	if err != nil {
		return "", err
	}
	if !hasMask {
		return addr.String(), nil
	}

	bits, err := strconv.Atoi(maskPart)
	if err != nil || maskPart != strconv.Itoa(bits) || bits < 0 || bits > 32 {
		return "", fmt.Errorf("%w: bad prefix length %q", ErrInvalidAddress, maskPart)
	}
	if bits == 32 {
		return addr.String(), nil
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return prefix.String(), nil
}

// IsHost reports whether a normalized key names a single address rather than
// a network. Reverse DNS is only meaningful for hosts.
func IsHost(key string) bool {
	return !strings.Contains(key, "/")
}

// parseIPv4 parses dotted-quad notation by octet so that leading zeros are
// tolerated, which netip.ParseAddr rejects.
func parseIPv4(s string) (netip.Addr, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	var b [4]byte
	for i, part := range parts {
		if part == "" || len(part) > 3 {
			return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
			}
		}
		v, err := strconv.Atoi(part)
		if err != nil || v > 255 {
			return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		b[i] = byte(v)
	}
	return netip.AddrFrom4(b), nil
}

// Well-known range descriptions. These never reach the RIR.
const (
	DescrPrivate   = "Private (RFC 1918 or APIPA) range"
	DescrLoopback  = "Loopback range"
	DescrMulticast = "Multicast range"
	DescrReserved  = "Reserved IP range"
)

// Classify returns a description for well-known ranges (private, loopback,
// multicast, reserved). ok is false for ordinary routable addresses, which
// require a registry lookup.
func Classify(key string) (descr string, ok bool) {
	host, _, _ := strings.Cut(key, "/")
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "", false
	}
	switch {
	case addr.IsPrivate(), addr.IsLinkLocalUnicast():
		return DescrPrivate, true
	case addr.IsLoopback():
		return DescrLoopback, true
	case addr.IsMulticast():
		return DescrMulticast, true
	case addr.IsUnspecified(), isReserved(addr):
		return DescrReserved, true
	}
	return "", false
}

// isReserved covers 240.0.0.0/4 (class E) and 192.0.2.0/24-style
// documentation space not flagged by netip itself.
func isReserved(addr netip.Addr) bool {
	for _, cidr := range []string{"240.0.0.0/4", "192.0.2.0/24", "198.51.100.0/24", "203.0.113.0/24"} {
		p := netip.MustParsePrefix(cidr)
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
