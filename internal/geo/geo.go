// Package geo resolves birth places to longitudes for true solar time.
package geo

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"bazi/internal/errors"
)

//go:embed cities.toml
var catalogTOML string

// City is one catalog entry.
type City struct {
	Province  string  `json:"province" toml:"-"`
	Name      string  `json:"name" toml:"name"`
	Longitude float64 `json:"longitude" toml:"longitude"`
}

// Province groups the cities of one province-level region.
type Province struct {
	Name   string `json:"name" toml:"name"`
	Cities []City `json:"cities" toml:"cities"`
}

type catalogFile struct {
	Province []Province `toml:"province"`
}

var (
	loadOnce  sync.Once
	provinces []Province
	loadErr   error
)

func load() ([]Province, error) {
	loadOnce.Do(func() {
		var f catalogFile
		if _, err := toml.Decode(catalogTOML, &f); err != nil {
			loadErr = fmt.Errorf("decode city catalog: %w", err)
			return
		}
		for i := range f.Province {
			for j := range f.Province[i].Cities {
				f.Province[i].Cities[j].Province = f.Province[i].Name
			}
		}
		provinces = f.Province
	})
	return provinces, loadErr
}

// Provinces returns the catalog in file order.
func Provinces() ([]Province, error) {
	return load()
}

// Lookup finds a city by name. The name may be qualified with its province,
// as "广东/深圳" or "广东 深圳", which disambiguates repeated names.
func Lookup(name string) (City, error) {
	all, err := load()
	if err != nil {
		return City{}, errors.New(errors.InternalError, "city catalog unavailable", err)
	}

	province, city := split(name)
	for _, p := range all {
		if province != "" && p.Name != province {
			continue
		}
		for _, c := range p.Cities {
			if c.Name == city {
				return c, nil
			}
		}
	}
	return City{}, errors.Newf(errors.CityNotFound, "unknown city %q", name).
		WithDetails(map[string]string{"city": name})
}

func split(name string) (string, string) {
	name = strings.TrimSpace(name)
	for _, sep := range []string{"/", " "} {
		if i := strings.Index(name, sep); i > 0 {
			return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+len(sep):])
		}
	}
	return "", name
}
