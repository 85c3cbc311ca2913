package tzresolver

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Locator looks up the timezone of an IP. An empty result means unknown.
type Locator interface {
	TimeZone(ip net.IP) (string, error)
}

// GeoIP is a Locator backed by a MaxMind City database.
type GeoIP struct {
	reader *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIP{reader: r}, nil
}

// GeoIPFromBytes loads a database already read into memory.
func GeoIPFromBytes(b []byte) (*GeoIP, error) {
	r, err := geoip2.FromBytes(b)
	if err != nil {
		return nil, err
	}
	return &GeoIP{reader: r}, nil
}

func (g *GeoIP) TimeZone(ip net.IP) (string, error) {
	rec, err := g.reader.City(ip)
	if err != nil {
		return "", err
	}
	return rec.Location.TimeZone, nil
}

func (g *GeoIP) Close() error {
	return g.reader.Close()
}
