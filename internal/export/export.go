// Package export projects engine results onto their output shapes: a flat
// record list for JSON and Excel export, and in-place updates for the
// SSL-inspection spreadsheet.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/StefanGrimminck/Spindle/internal/engine"
)

// NotFoundFile collects addresses no registry could resolve, one per line,
// appended across runs.
const NotFoundFile = "not_found_list.txt"

// Record is the flat export shape for one input token.
type Record struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CIDR        string `json:"cidr"`
	Country     string `json:"country"`
	Registry    string `json:"registry"`
	FQDN        string `json:"fqdn"`
	Unresolved  string `json:"unresolved,omitempty"`
}

// Records flattens a result into one record per input token, preserving the
// input order. Unresolved tokens keep their address and carry the reason.
func Records(tokens []string, result engine.Result) []Record {
	records := make([]Record, 0, len(tokens))
	for _, token := range tokens {
		o, ok := result[token]
		if !ok {
			continue
		}
		rec := Record{Address: token, Unresolved: string(o.Reason)}
		if o.Entry != nil {
			rec.Name = o.Entry.Name
			rec.Description = o.Entry.Description
			rec.CIDR = o.Entry.CIDR
			rec.Country = o.Entry.Country
			rec.Registry = o.Entry.Registry
			rec.FQDN = o.Entry.FQDN
		}
		records = append(records, rec)
	}
	return records
}

// WriteJSON persists records as an indented JSON array, written atomically.
func WriteJSON(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AppendNotFound appends unresolved addresses to the sidecar file. A nil or
// empty list is a no-op.
func AppendNotFound(path string, addrs []string) error {
	if len(addrs) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strings.Join(addrs, "\n") + "\n")
	return err
}

// Summary renders one resolved record as the multiline cell text used by
// the in-place spreadsheet update.
func Summary(address string, rec Record) string {
	return fmt.Sprintf("%s:\n"+
		"%7s Name: %s\n"+
		"%7s Description: %s\n"+
		"%7s CIDR: %s\n"+
		"%7s Country: %s\n"+
		"%7s Registry: %s\n"+
		"%7s FQDN: %s\n",
		address,
		"-", rec.Name,
		"-", rec.Description,
		"-", rec.CIDR,
		"-", rec.Country,
		"-", rec.Registry,
		"-", rec.FQDN)
}
