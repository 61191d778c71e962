// Package enrich supplements registry answers with offline MaxMind data.
// RDAP answers frequently omit country or carry an opaque holder name; the
// local databases fill those gaps without extra network calls.
package enrich

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog"

	"github.com/StefanGrimminck/Spindle/internal/rir"
)

// Enricher fills missing Record fields from MaxMind City and ASN databases.
// Both databases are optional; with neither configured it is a pass-through.
type Enricher struct {
	geoDB *geoip2.Reader
	asnDB *geoip2.Reader
	log   zerolog.Logger
}

// NewEnricher opens the configured databases. geoPath and asnPath can be ""
// to skip.
func NewEnricher(geoPath, asnPath string, log zerolog.Logger) (*Enricher, error) {
	e := &Enricher{log: log}
	if geoPath != "" {
		db, err := geoip2.Open(geoPath)
		if err != nil {
			return nil, fmt.Errorf("geoip db: %w", err)
		}
		e.geoDB = db
	}
	if asnPath != "" {
		db, err := geoip2.Open(asnPath)
		if err != nil {
			if e.geoDB != nil {
				_ = e.geoDB.Close()
			}
			return nil, fmt.Errorf("asn db: %w", err)
		}
		e.asnDB = db
	}
	return e, nil
}

// Close closes the databases.
func (e *Enricher) Close() error {
	if e.geoDB != nil {
		_ = e.geoDB.Close()
		e.geoDB = nil
	}
	if e.asnDB != nil {
		_ = e.asnDB.Close()
		e.asnDB = nil
	}
	return nil
}

// Supplement fills empty Country and Description fields of rec for the given
// normalized key. Existing registry data always wins; lookups that fail are
// skipped silently.
func (e *Enricher) Supplement(key string, rec *rir.Record) {
	if rec == nil || (e.geoDB == nil && e.asnDB == nil) {
		return
	}
	host, _, _ := strings.Cut(key, "/")
	ip := net.ParseIP(host)
	if ip == nil {
		return
	}

	if rec.Country == "" && e.geoDB != nil {
		if city, err := e.geoDB.City(ip); err == nil && city != nil {
			rec.Country = city.Country.IsoCode
		}
	}
	if rec.Description == "" && e.asnDB != nil {
		if asn, err := e.asnDB.ASN(ip); err == nil && asn != nil {
			rec.Description = asn.AutonomousSystemOrganization
		}
	}
}
