// Package rir queries Regional Internet Registry ownership data for IPv4
// addresses and networks over RDAP.
package rir

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/openrdap/rdap"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when no registry holds a record for the address.
var ErrNotFound = errors.New("address not found in registry data")

// Record is the ownership metadata extracted from one RDAP answer.
type Record struct {
	Name        string
	Description string
	CIDR        string
	Country     string
	Registry    string
}

// reservedNames marks aggregates delegated wholesale to another registry.
// Callers should not cache these: the covering block says nothing about the
// actual holder.
var reservedNames = map[string]bool{
	"IANA-BLK": true,
}

// Reserved reports whether r describes a delegated aggregate rather than a
// real allocation.
func (r *Record) Reserved() bool {
	return reservedNames[r.Name]
}

// Options configure a Client.
type Options struct {
	// Timeout bounds a single RDAP query.
	Timeout time.Duration
	// Interval is the minimum spacing between outbound queries.
	Interval time.Duration
	// Retries is the number of attempts made when a query times out.
	Retries int
	// RetryWait is the pause between timeout retries.
	RetryWait time.Duration
}

// Client performs one blocking RDAP query per call, paced to a fixed
// inter-request interval. It holds no batch state.
type Client struct {
	limiter   *rate.Limiter
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	log       zerolog.Logger

	// injectable for tests
	do    func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error)
	sleep func(d time.Duration)
}

// NewClient creates a paced RDAP client. Zero option fields fall back to
// conservative defaults.
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Interval <= 0 {
		opts.Interval = 200 * time.Millisecond
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 10 * time.Second
	}
	c := &Client{
		limiter:   rate.NewLimiter(rate.Every(opts.Interval), 1),
		timeout:   opts.Timeout,
		retries:   opts.Retries,
		retryWait: opts.RetryWait,
		log:       log,
		sleep:     time.Sleep,
	}
	rdapClient := &rdap.Client{}
	c.do = func(ctx context.Context, ip net.IP) (*rdap.IPNetwork, error) {
		req := rdap.NewIPRequest(ip).WithContext(ctx)
		resp, err := rdapClient.Do(req)
		if err != nil {
			if isObjectDoesNotExist(err) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		ipn, ok := resp.Object.(*rdap.IPNetwork)
		if !ok || ipn == nil {
			return nil, fmt.Errorf("unexpected rdap object type %T", resp.Object)
		}
		return ipn, nil
	}
	return c
}

// Query resolves one normalized address or network key. Timeouts are retried
// a bounded number of times with a pause in between; all other failures are
// reported to the caller, never escalated.
func (c *Client) Query(ctx context.Context, key string) (*Record, error) {
	host, _, _ := strings.Cut(key, "/")
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("unparseable key %q", key)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, c.timeout)
		ipn, err := c.do(qctx, ip)
		cancel()
		if err == nil {
			return recordFromIPNetwork(ipn), nil
		}
		lastErr = err
		if !isTimeout(err) || attempt == c.retries-1 {
			break
		}
		c.log.Info().Str("address", key).Dur("wait", c.retryWait).Msg("rdap timeout, pausing before retry")
		c.sleep(c.retryWait)
	}
	return nil, fmt.Errorf("rdap query %s: %w", key, lastErr)
}

func isObjectDoesNotExist(err error) bool {
	var ce *rdap.ClientError
	return errors.As(err, &ce) && ce.Type == rdap.ObjectDoesNotExist
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func recordFromIPNetwork(ipn *rdap.IPNetwork) *Record {
	rec := &Record{
		Name:     ipn.Name,
		Country:  ipn.Country,
		Registry: registryOf(ipn),
	}
	rec.CIDR = coveringCIDR(ipn.StartAddress, ipn.EndAddress)
	if rec.CIDR == "" {
		rec.CIDR = ipn.Handle
	}
	rec.Description = holderOf(ipn)
	return rec
}

// holderOf picks a human-meaningful owner string: the registrant vCard name
// first, any other entity name second, the first remark line as a fallback.
func holderOf(ipn *rdap.IPNetwork) string {
	var fallback string
	for _, ent := range ipn.Entities {
		if ent.VCard == nil {
			continue
		}
		name := strings.TrimSpace(ent.VCard.Name())
		if name == "" {
			continue
		}
		for _, role := range ent.Roles {
			if role == "registrant" {
				return name
			}
		}
		if fallback == "" {
			fallback = name
		}
	}
	if fallback != "" {
		return fallback
	}
	for _, rem := range ipn.Remarks {
		for _, line := range rem.Description {
			line = strings.TrimSpace(line)
			if line != "" {
				return line
			}
		}
	}
	return ""
}

var registryHosts = map[string]string{
	"arin":    "arin",
	"ripe":    "ripe",
	"apnic":   "apnic",
	"lacnic":  "lacnic",
	"afrinic": "afrinic",
}

// registryOf derives the responsible RIR from the port 43 whois host or,
// failing that, the self links in the answer.
func registryOf(ipn *rdap.IPNetwork) string {
	candidates := []string{ipn.Port43}
	for _, l := range ipn.Links {
		candidates = append(candidates, l.Href, l.Value)
	}
	for _, c := range candidates {
		c = strings.ToLower(c)
		for sub, name := range registryHosts {
			if strings.Contains(c, sub) {
				return name
			}
		}
	}
	return ""
}

// coveringCIDR returns the smallest IPv4 prefix containing both range ends,
// or "" when either end is missing or not IPv4.
func coveringCIDR(start, end string) string {
	a, errA := netip.ParseAddr(strings.TrimSpace(start))
	b, errB := netip.ParseAddr(strings.TrimSpace(end))
	if errA != nil || errB != nil || !a.Is4() || !b.Is4() {
		return ""
	}
	ua := binary.BigEndian.Uint32(a.AsSlice())
	ub := binary.BigEndian.Uint32(b.AsSlice())
	if ua > ub {
		ua, ub = ub, ua
		a = b
	}
	bits := 32
	for bits > 0 && (ua>>(32-bits)) != (ub>>(32-bits)) {
		bits--
	}
	prefix, err := a.Prefix(bits)
	if err != nil {
		return ""
	}
	return prefix.String()
}
