package rir

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/openrdap/rdap"
	"github.com/rs/zerolog"
)

func newTestClient() *Client {
	c := NewClient(Options{Interval: time.Nanosecond, RetryWait: time.Millisecond}, zerolog.Nop())
	c.sleep = func(time.Duration) {}
	return c
}

func TestQuery_MapsAnswer(t *testing.T) {
	c := newTestClient()
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		return &rdap.IPNetwork{
			Name:         "LVLT-GOGL-8-8-8",
			Handle:       "NET-8-8-8-0-1",
			StartAddress: "8.8.8.0",
			EndAddress:   "8.8.8.255",
			Country:      "US",
			Port43:       "whois.arin.net",
			Remarks: []rdap.Remark{
				{Description: []string{"Google LLC"}},
			},
		}, nil
	}

	rec, err := c.Query(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rec.Name != "LVLT-GOGL-8-8-8" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.CIDR != "8.8.8.0/24" {
		t.Errorf("CIDR = %q, want 8.8.8.0/24", rec.CIDR)
	}
	if rec.Registry != "arin" {
		t.Errorf("Registry = %q, want arin", rec.Registry)
	}
	if rec.Country != "US" {
		t.Errorf("Country = %q, want US", rec.Country)
	}
	if rec.Description != "Google LLC" {
		t.Errorf("Description = %q, want Google LLC", rec.Description)
	}
}

func TestQuery_HandleFallbackWhenRangeMissing(t *testing.T) {
	c := newTestClient()
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		return &rdap.IPNetwork{Handle: "8.8.8.0 - 8.8.8.255"}, nil
	}
	rec, err := c.Query(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rec.CIDR != "8.8.8.0 - 8.8.8.255" {
		t.Errorf("CIDR = %q, want handle fallback", rec.CIDR)
	}
}

func TestQuery_NotFound(t *testing.T) {
	c := newTestClient()
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		return nil, ErrNotFound
	}
	_, err := c.Query(context.Background(), "203.0.114.1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQuery_RetriesOnTimeout(t *testing.T) {
	c := newTestClient()
	var sleeps int
	c.sleep = func(time.Duration) { sleeps++ }
	calls := 0
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		calls++
		if calls < 3 {
			return nil, context.DeadlineExceeded
		}
		return &rdap.IPNetwork{Name: "ok"}, nil
	}

	rec, err := c.Query(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rec.Name != "ok" {
		t.Errorf("Name = %q", rec.Name)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if sleeps != 2 {
		t.Errorf("sleeps = %d, want 2", sleeps)
	}
}

func TestQuery_TimeoutExhaustsRetries(t *testing.T) {
	c := newTestClient()
	var sleeps int
	c.sleep = func(time.Duration) { sleeps++ }
	calls := 0
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		calls++
		return nil, context.DeadlineExceeded
	}
	if _, err := c.Query(context.Background(), "8.8.8.8"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (default retries)", calls)
	}
	if sleeps != 2 {
		t.Errorf("sleeps = %d, want 2 (no pause after the final attempt)", sleeps)
	}
}

func TestQuery_NoRetryOnHardFailure(t *testing.T) {
	c := newTestClient()
	calls := 0
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		calls++
		return nil, errors.New("malformed response")
	}
	if _, err := c.Query(context.Background(), "8.8.8.8"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-timeout)", calls)
	}
}

func TestRecord_Reserved(t *testing.T) {
	if !(&Record{Name: "IANA-BLK"}).Reserved() {
		t.Error("IANA-BLK should be reserved")
	}
	if (&Record{Name: "LVLT-GOGL-8-8-8"}).Reserved() {
		t.Error("ordinary allocation should not be reserved")
	}
}

func TestCoveringCIDR(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"8.8.8.0", "8.8.8.255", "8.8.8.0/24"},
		{"104.16.0.0", "104.31.255.255", "104.16.0.0/12"},
		{"1.1.1.1", "1.1.1.1", "1.1.1.1/32"},
		{"", "8.8.8.255", ""},
		{"2001:db8::", "2001:db8::ff", ""},
		// Non-aligned range still gets the smallest covering prefix.
		{"8.8.8.1", "8.8.9.0", "8.8.8.0/23"},
	}
	for _, tt := range tests {
		if got := coveringCIDR(tt.start, tt.end); got != tt.want {
			t.Errorf("coveringCIDR(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestRegistryOf(t *testing.T) {
	tests := []struct {
		ipn  rdap.IPNetwork
		want string
	}{
		{rdap.IPNetwork{Port43: "whois.ripe.net"}, "ripe"},
		{rdap.IPNetwork{Port43: "whois.apnic.net"}, "apnic"},
		{rdap.IPNetwork{Links: []rdap.Link{{Href: "https://rdap.lacnic.net/rdap/ip/200.0.0.0/8"}}}, "lacnic"},
		{rdap.IPNetwork{}, ""},
	}
	for _, tt := range tests {
		if got := registryOf(&tt.ipn); got != tt.want {
			t.Errorf("registryOf(%+v) = %q, want %q", tt.ipn, got, tt.want)
		}
	}
}
