package cli

import (
	"strings"
	"testing"

	"github.com/jmylchreest/swatch/internal/colour"
)

func TestNewTable(t *testing.T) {
	table := NewTable([]string{"Hex", "Percent"})

	if table == nil {
		t.Fatal("NewTable returned nil")
	}
	if len(table.headers) != 2 {
		t.Errorf("Expected 2 headers, got %d", len(table.headers))
	}
	if table.padding != 2 {
		t.Errorf("Expected padding of 2, got %d", table.padding)
	}
}

func TestTableAddRow(t *testing.T) {
	table := NewTable([]string{"Name", "Age"})

	table.AddRow([]string{"Alice", "30"})
	table.AddRow([]string{"Bob"})
	table.AddRow([]string{"Charlie", "25", "Extra"})

	if len(table.rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(table.rows))
	}
	for i, row := range table.rows {
		if len(row) != 2 {
			t.Errorf("row %d has %d columns, want 2", i, len(row))
		}
	}
	if table.rows[1][1] != "" {
		t.Errorf("Expected empty string for padded column, got %q", table.rows[1][1])
	}
}

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"Hex", "Percent"})
	table.AlignRight(1)
	table.AddRow([]string{"#FF0000", "75.00"})
	table.AddRow([]string{"#0000FF", "5.00"})

	want := strings.Join([]string{
		"Hex      Percent",
		"-------  -------",
		"#FF0000    75.00",
		"#0000FF     5.00",
	}, "\n") + "\n"

	if got := table.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestTableRenderIgnoresANSI(t *testing.T) {
	swatch := colour.ColourPreview(colour.RGB{R: 255}, 4)

	table := NewTable([]string{"Swatch", "Hex"})
	table.AddRow([]string{swatch, "#FF0000"})

	lines := strings.Split(strings.TrimSuffix(table.Render(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}

	header := lines[0]
	row := colour.StripANSI(lines[2])
	if strings.Index(header, "Hex") != strings.Index(row, "#FF0000") {
		t.Errorf("columns misaligned:\n%s\n%s", header, row)
	}
}

func TestTableRenderEmpty(t *testing.T) {
	if got := NewTable(nil).Render(); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "abc", want: 3},
		{in: "\x1b[48;2;255;0;0m  \x1b[0m", want: 2},
		{in: "██", want: 2},
	}

	for _, tt := range tests {
		if got := visibleWidth(tt.in); got != tt.want {
			t.Errorf("visibleWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
