package admin

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoResolver resolves an IP to a coarse "City, Country" label for the
// admin session listing. It is optional: a nil resolver returns "".
type GeoResolver struct {
	reader *geoip2.Reader
}

// NewGeoResolver opens a MaxMind city database at path.
func NewGeoResolver(path string) (*GeoResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("admin: open geoip database: %w", err)
	}
	return &GeoResolver{reader: reader}, nil
}

// Lookup returns "City, Country", "Country", or "" when nothing resolves.
func (g *GeoResolver) Lookup(ip net.IP) string {
	if g == nil || g.reader == nil || ip == nil {
		return ""
	}

	rec, err := g.reader.City(ip)
	if err != nil {
		return ""
	}

	city := rec.City.Names["en"]
	country := rec.Country.Names["en"]
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return ""
	}
}

// Close releases the underlying database.
func (g *GeoResolver) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
