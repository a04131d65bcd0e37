// Package geoip resolves client countries for locale detection.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

var ErrUnavailable = errors.New("geoip resolver unavailable")

type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// Resolver looks countries up in a MaxMind GeoIP2 or GeoLite2 country
// database. Private and loopback addresses resolve to "" without a lookup.
type Resolver struct {
	db *geoip2.Reader
}

// NewResolver opens the database at path. An empty path yields a nil
// resolver and no error; locale detection then relies on headers alone.
func NewResolver(path string) (CountryResolver, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil {
		return "", ErrUnavailable
	}
	addr, err := parse(ip)
	if err != nil {
		return "", err
	}
	if !routable(addr) {
		return "", nil
	}
	if r.db == nil {
		return "", ErrUnavailable
	}
	rec, err := r.db.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", addr, err)
	}
	return rec.Country.IsoCode, nil
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Static maps fixed addresses to countries, for local setups without a
// database.
type Static map[string]string

func (s Static) CountryCode(ip string) (string, error) {
	addr, err := parse(ip)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(s[addr.String()]), nil
}

// LookupFunc adapts a resolver to a plain function. A nil resolver gives a
// nil function so callers skip the lookup.
func LookupFunc(r CountryResolver) func(ip string) (string, error) {
	if r == nil {
		return nil
	}
	return r.CountryCode
}

func parse(ip string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	return addr.Unmap(), nil
}

func routable(addr netip.Addr) bool {
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified())
}
