package geo

import (
	"math"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	frames := []Frame{
		NewFrame(LatLon{Lat: 39.2904, Lon: -76.6122}, DefaultScale),
		NewFrame(LatLon{Lat: -12.0464, Lon: -77.0428}, 50000),
		NewFrame(LatLon{Lat: 64.1466, Lon: -21.9426}, 1),
	}
	points := []LatLon{
		{Lat: 39.29, Lon: -76.61},
		{Lat: 39.3, Lon: -76.7},
		{Lat: -12.05, Lon: -77.0},
		{Lat: 0, Lon: 0},
		{Lat: 60.123456, Lon: 10.654321},
	}

	for _, f := range frames {
		for _, p := range points {
			w := f.ToWorld(p.Lat, p.Lon)
			back := f.ToGeo(w.X, w.Z)
			if d := math.Abs(Round6(back.Lat) - Round6(p.Lat)); d > 1e-6 {
				t.Errorf("origin %v: lat %v -> %v (diff %g)", f.Origin(), p.Lat, back.Lat, d)
			}
			if d := math.Abs(Round6(back.Lon) - Round6(p.Lon)); d > 1e-6 {
				t.Errorf("origin %v: lon %v -> %v (diff %g)", f.Origin(), p.Lon, back.Lon, d)
			}
		}
	}
}

func TestFrameAxes(t *testing.T) {
	f := NewFrame(LatLon{Lat: 60, Lon: 10}, 1000)

	north := f.ToWorld(60.001, 10)
	if north.Z >= 0 || math.Abs(north.X) > 1e-9 {
		t.Errorf("north of origin = %+v, want negative z", north)
	}

	east := f.ToWorld(60, 10.001)
	// cos(60°) halves the east-west scale.
	if math.Abs(east.X-0.5) > 1e-9 {
		t.Errorf("east x = %v, want 0.5", east.X)
	}
}

func TestNewFramePanicsOnBadScale(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero scale")
		}
	}()
	NewFrame(LatLon{}, 0)
}

func TestSelectionResolve(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selection
		want    string
		wantErr bool
	}{
		{name: "preset", sel: Preset("baltimore"), want: "Baltimore"},
		{name: "custom", sel: Custom(1.5, 2.25), want: "Custom (1.5000, 2.2500)"},
		{name: "unknown", sel: Preset("atlantis"), wantErr: true},
		{name: "custom out of range", sel: Custom(91, 0), wantErr: true},
		{name: "custom lon out of range", sel: Custom(0, 180.5), wantErr: true},
		{name: "custom dateline", sel: Custom(0, -180), want: "Custom (0.0000, -180.0000)"},
		{name: "custom north pole", sel: Custom(90, 0), wantErr: true},
		{name: "custom south pole", sel: Custom(-90, 10), wantErr: true},
		{name: "custom near pole", sel: Custom(89.5, 0), want: "Custom (89.5000, 0.0000)"},
		{name: "custom NaN lat", sel: Custom(math.NaN(), 0), wantErr: true},
		{name: "custom NaN lon", sel: Custom(0, math.NaN()), wantErr: true},
		{name: "custom infinite lat", sel: Custom(math.Inf(1), 0), wantErr: true},
		{name: "custom infinite lon", sel: Custom(0, math.Inf(-1)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := tt.sel.Resolve()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", loc)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if loc.Name != tt.want {
				t.Errorf("name = %q, want %q", loc.Name, tt.want)
			}
		})
	}
}
