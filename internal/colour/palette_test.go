package colour

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestRGBHex(t *testing.T) {
	tests := []struct {
		name string
		rgb  RGB
		want string
	}{
		{
			name: "red",
			rgb:  RGB{R: 255, G: 0, B: 0},
			want: "#FF0000",
		},
		{
			name: "black",
			rgb:  RGB{R: 0, G: 0, B: 0},
			want: "#000000",
		},
		{
			name: "mixed",
			rgb:  RGB{R: 26, G: 43, B: 60},
			want: "#1A2B3C",
		},
		{
			name: "single digit channels",
			rgb:  RGB{R: 1, G: 10, B: 15},
			want: "#010A0F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rgb.Hex(); got != tt.want {
				t.Errorf("Hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{name: "uppercase", input: "#1A2B3C", want: RGB{R: 26, G: 43, B: 60}},
		{name: "lowercase", input: "#ff8000", want: RGB{R: 255, G: 128, B: 0}},
		{name: "missing hash", input: "FF0000", wantErr: true},
		{name: "short form", input: "#F00", wantErr: true},
		{name: "not hex", input: "#GGGGGG", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHex(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 51 {
			for b := 0; b < 256; b += 85 {
				want := RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
				hex := want.Hex()
				if hex != strings.ToUpper(hex) || len(hex) != 7 || hex[0] != '#' {
					t.Fatalf("Hex() = %q is not #RRGGBB uppercase", hex)
				}
				got, err := ParseHex(hex)
				if err != nil {
					t.Fatalf("ParseHex(%q) unexpected error: %v", hex, err)
				}
				if got != want {
					t.Fatalf("ParseHex(%q) = %+v, want %+v", hex, got, want)
				}
			}
		}
	}
}

func TestEntryJSON(t *testing.T) {
	entry := Entry{Hex: "#FF0000", RGB: RGB{R: 255}, Percent: 12.34}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"hex":"#FF0000","rgb":[255,0,0],"percent":12.34}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != entry {
		t.Errorf("Unmarshal() = %+v, want %+v", decoded, entry)
	}
}

func TestRGBUnmarshalRejectsOutOfRange(t *testing.T) {
	var rgb RGB
	if err := json.Unmarshal([]byte(`[256,0,0]`), &rgb); err == nil {
		t.Error("expected error for channel above 255")
	}
	if err := json.Unmarshal([]byte(`{"r":1}`), &rgb); err == nil {
		t.Error("expected error for object form")
	}
}

func TestRank(t *testing.T) {
	red := RGB{R: 255}
	blue := RGB{B: 255}
	green := RGB{G: 255}

	tests := []struct {
		name    string
		cs      ClusterSet
		wantHex []string
		wantPct []float64
	}{
		{
			name:    "empty",
			cs:      ClusterSet{},
			wantHex: []string{},
			wantPct: []float64{},
		},
		{
			name: "descending by share",
			cs: ClusterSet{
				Centers: []RGB{red, blue, green},
				Labels:  []int{0, 1, 1, 2, 2, 2},
			},
			wantHex: []string{"#00FF00", "#0000FF", "#FF0000"},
			wantPct: []float64{50, 33.33, 16.67},
		},
		{
			name: "ties keep cluster order",
			cs: ClusterSet{
				Centers: []RGB{blue, red},
				Labels:  []int{1, 0, 1, 0},
			},
			wantHex: []string{"#0000FF", "#FF0000"},
			wantPct: []float64{50, 50},
		},
		{
			name: "empty clusters dropped",
			cs: ClusterSet{
				Centers: []RGB{red, blue, green},
				Labels:  []int{2, 2, 0},
			},
			wantHex: []string{"#00FF00", "#FF0000"},
			wantPct: []float64{66.67, 33.33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			palette := Rank(tt.cs)
			if palette == nil {
				t.Fatal("Rank returned nil palette")
			}
			if palette.Len() != len(tt.wantHex) {
				t.Fatalf("Rank() returned %d entries, want %d", palette.Len(), len(tt.wantHex))
			}
			for i, e := range palette {
				if e.Hex != tt.wantHex[i] {
					t.Errorf("entry %d hex = %s, want %s", i, e.Hex, tt.wantHex[i])
				}
				if e.Percent != tt.wantPct[i] {
					t.Errorf("entry %d percent = %v, want %v", i, e.Percent, tt.wantPct[i])
				}
				if e.Hex != e.RGB.Hex() {
					t.Errorf("entry %d hex %s does not match rgb %v", i, e.Hex, e.RGB)
				}
			}
		})
	}
}

func TestRankPercentSum(t *testing.T) {
	centers := make([]RGB, 7)
	for i := range centers {
		centers[i] = RGB{R: uint8(i * 30)}
	}
	labels := make([]int, 0, 1000)
	for i := range 1000 {
		labels = append(labels, (i*i+3*i)%7)
	}

	palette := Rank(ClusterSet{Centers: centers, Labels: labels})

	if diff := math.Abs(palette.TotalPercent() - 100); diff > 0.1*float64(palette.Len()) {
		t.Errorf("percent sum = %v, want 100 within rounding", palette.TotalPercent())
	}
	for i := 1; i < palette.Len(); i++ {
		if palette[i].Percent > palette[i-1].Percent {
			t.Errorf("entry %d percent %v exceeds previous %v", i, palette[i].Percent, palette[i-1].Percent)
		}
	}
}

func TestPaletteString(t *testing.T) {
	if got := (Palette{}).String(); got != "Empty palette" {
		t.Errorf("String() = %q, want %q", got, "Empty palette")
	}

	p := Palette{{Hex: "#FF0000", RGB: RGB{R: 255}, Percent: 100}}
	got := p.String()
	if !strings.Contains(got, "#FF0000") || !strings.Contains(got, "100.00%") {
		t.Errorf("String() = %q, missing hex or percent", got)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 33.333333, want: 33.33},
		{in: 66.666666, want: 66.67},
		{in: 12.3456, want: 12.35},
		{in: 100, want: 100},
	}

	for _, tt := range tests {
		if got := roundTo(tt.in, 2); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("roundTo(%v, 2) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
