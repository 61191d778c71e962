package enrich

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/StefanGrimminck/Spindle/internal/rir"
)

func TestSupplement_NoDBs_PassThrough(t *testing.T) {
	e, err := NewEnricher("", "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	rec := &rir.Record{Name: "LVLT-GOGL-8-8-8", Country: "US"}
	e.Supplement("8.8.8.8", rec)
	if rec.Country != "US" || rec.Name != "LVLT-GOGL-8-8-8" {
		t.Errorf("record altered without databases: %+v", rec)
	}
}

func TestSupplement_NilRecord_NoPanic(t *testing.T) {
	e, err := NewEnricher("", "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	e.Supplement("8.8.8.8", nil)
}

func TestNewEnricher_MissingDBFails(t *testing.T) {
	if _, err := NewEnricher("/nonexistent/GeoLite2-City.mmdb", "", zerolog.Nop()); err == nil {
		t.Error("expected error for missing geoip db")
	}
	if _, err := NewEnricher("", "/nonexistent/GeoLite2-ASN.mmdb", zerolog.Nop()); err == nil {
		t.Error("expected error for missing asn db")
	}
}
