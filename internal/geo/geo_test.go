package geo

import (
	"testing"

	"bazi/internal/errors"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		province  string
		longitude float64
	}{
		{"北京", "北京", 116.40},
		{"深圳", "广东", 114.06},
		{"广东/深圳", "广东", 114.06},
		{"四川 成都", "四川", 104.07},
		{"乌鲁木齐", "新疆", 87.62},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if c.Province != tt.province || c.Longitude != tt.longitude {
				t.Errorf("Lookup() = %+v, want %s %v", c, tt.province, tt.longitude)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, name := range []string{"Atlantis", "广东/成都", ""} {
		if _, err := Lookup(name); !errors.Is(err, errors.CityNotFound) {
			t.Errorf("Lookup(%q) error = %v, want CITY_NOT_FOUND", name, err)
		}
	}
}

func TestProvinces(t *testing.T) {
	ps, err := Provinces()
	if err != nil {
		t.Fatalf("Provinces() error = %v", err)
	}
	if len(ps) < 30 {
		t.Errorf("len(Provinces()) = %d, want every province-level region", len(ps))
	}
	for _, p := range ps {
		if len(p.Cities) == 0 {
			t.Errorf("province %s has no cities", p.Name)
		}
		for _, c := range p.Cities {
			if c.Longitude < 70 || c.Longitude > 136 {
				t.Errorf("%s longitude %v outside China", c.Name, c.Longitude)
			}
		}
	}
}
