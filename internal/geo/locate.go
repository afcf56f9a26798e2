// Package geo places measured targets on a world map.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// Location is a named point on the map
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// well known public resolvers
var knownLocations = map[string]Location{
	"8.8.8.8":        {"Mountain View, CA, USA", 37.4056, -122.0775},
	"8.8.4.4":        {"Mountain View, CA, USA", 37.4056, -122.0775},
	"1.1.1.1":        {"San Francisco, CA, USA", 37.7749, -122.4194},
	"1.0.0.1":        {"San Francisco, CA, USA", 37.7749, -122.4194},
	"208.67.222.222": {"San Francisco, CA, USA", 37.7749, -122.4194},
	"208.67.220.220": {"San Francisco, CA, USA", 37.7749, -122.4194},
}

// Locator resolves target addresses to locations
type Locator struct {
	db     *geoip2.Reader
	logger *zap.Logger
}

// NewLocator opens the GeoLite2 City database at path. An empty path or a
// missing database leaves only the built in resolver locations.
func NewLocator(path string, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Locator{logger: logger}
	if path == "" {
		return l
	}
	db, err := geoip2.Open(path)
	if err != nil {
		logger.Warn("geoip database unavailable", zap.String("path", path), zap.Error(err))
		return l
	}
	l.db = db
	return l
}

// Close releases the geoip database
func (l *Locator) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Locate returns the location of target, known resolvers first
func (l *Locator) Locate(target string) (Location, bool) {
	if loc, ok := knownLocations[target]; ok {
		return loc, true
	}
	if l.db == nil {
		return Location{}, false
	}

	ip := net.ParseIP(target)
	if ip == nil {
		return Location{}, false
	}
	rec, err := l.db.City(ip)
	if err != nil || rec == nil {
		l.logger.Debug("geoip lookup failed", zap.String("target", target), zap.Error(err))
		return Location{}, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, false
	}

	name := target
	city, country := rec.City.Names["en"], rec.Country.Names["en"]
	switch {
	case city != "" && country != "":
		name = fmt.Sprintf("%s, %s", city, country)
	case country != "":
		name = country
	}
	return Location{Name: name, Lat: rec.Location.Latitude, Lon: rec.Location.Longitude}, true
}
