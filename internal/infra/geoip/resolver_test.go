package geoip

import "testing"

func TestStatic(t *testing.T) {
	r := Static{"203.0.113.9": "tr"}
	if got, err := r.CountryCode("203.0.113.9"); err != nil || got != "TR" {
		t.Fatalf("got %q %v", got, err)
	}
	if got, err := r.CountryCode("198.51.100.1"); err != nil || got != "" {
		t.Fatalf("unknown ip: got %q %v", got, err)
	}
	if _, err := r.CountryCode("nope"); err == nil {
		t.Fatal("expected error for invalid ip")
	}
}

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver(" ")
	if err != nil || r != nil {
		t.Fatalf("got %v %v", r, err)
	}
	if LookupFunc(nil) != nil {
		t.Fatal("nil resolver should give nil lookup")
	}
}

func TestResolverUninitialized(t *testing.T) {
	var r *Resolver
	if _, err := r.CountryCode("203.0.113.9"); err != ErrUnavailable {
		t.Fatalf("got %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolverSkipsPrivateAddresses(t *testing.T) {
	r := &Resolver{}
	for _, ip := range []string{"10.1.2.3", "127.0.0.1", "::1", "192.168.0.7", "::ffff:10.0.0.1"} {
		if got, err := r.CountryCode(ip); err != nil || got != "" {
			t.Fatalf("CountryCode(%q) = %q, %v", ip, got, err)
		}
	}
	if _, err := r.CountryCode("203.0.113.9"); err != ErrUnavailable {
		t.Fatalf("public address without database: %v", err)
	}
}
