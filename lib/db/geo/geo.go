package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

type MaxMindResult struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
		Names   struct {
			EN string `maxminddb:"en"`
		} `maxminddb:"names"`
	} `maxminddb:"country"`
}

// Resolver maps client addresses to ISO country codes. A nil Resolver
// resolves nothing.
type Resolver struct {
	db *maxminddb.Reader
}

func Open(path string) (*Resolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening DB: %w", err)
	}

	if db.Metadata.RecordSize == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("%s is not a MaxMind database", path)
	}

	return &Resolver{db: db}, nil
}

func (r *Resolver) Country(ipAddress string) string {
	if r == nil || r.db == nil {
		return ""
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return ""
	}

	var lookupResult MaxMindResult
	if err := r.db.Lookup(ip, &lookupResult); err != nil {
		return ""
	}

	return lookupResult.Country.ISOCode
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
