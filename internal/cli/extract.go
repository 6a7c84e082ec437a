package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/swatch/internal/colour"
	"github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/summary"
)

var (
	// Extract command flags
	extractK       int
	extractMaxSide int
	extractFormat  string
	extractOutput  string
)

// Output formats accepted by --format.
const (
	formatJSON  = "json"
	formatHex   = "hex"
	formatTable = "table"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <image|url>",
	Short: "Extract the dominant colours of an image",
	Long: `Extract the dominant colours of an image file or URL.

The image is downscaled, transparent pixels are dropped, and the remaining
colours are clustered with k-means. Colours are listed by coverage.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF

Examples:
  # Six colours as JSON, the same body the HTTP service returns
  swatch extract wallpaper.jpg

  # Ten colours as a table with terminal swatches
  swatch extract -k 10 --format table wallpaper.png

  # Seed from the image content and save hex codes to a file
  swatch extract --seed-mode content -f hex -o palette.txt https://example.com/photo.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractK, "colours", "k", summary.DefaultK, "number of colours to extract (1-256)")
	extractCmd.Flags().IntVar(&extractMaxSide, "max-side", summary.DefaultMaxSide, "longest side after downscaling, in pixels")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", formatJSON, "output format (json, hex, table)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().String("seed-mode", "", "seed mode (manual, content, random)")
	extractCmd.Flags().Int64("seed", 0, "seed value for manual seed mode")
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]

	if extractK < 1 || extractK > 256 {
		return fmt.Errorf("colours must be between 1 and 256, got %d", extractK)
	}
	if extractMaxSide < 1 {
		return fmt.Errorf("max-side must be positive, got %d", extractMaxSide)
	}
	switch extractFormat {
	case formatJSON, formatHex, formatTable:
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, hex, table)", extractFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	if !image.IsURL(source) && !image.HasImageExtension(source) {
		logger.Warn("unrecognised image extension, decoding anyway", "path", source,
			"supported", strings.Join(image.SupportedImageExtensions(), ","))
	}

	loader := image.NewSmartLoader()
	loader.MaxBytes = cfg.Server.MaxUploadBytes

	logger.Debug("loading image", "source", source)
	data, err := loader.Load(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	summarizer := summary.New(cfg.SummaryConfig(), logger.Named("summary"))
	result, err := summarizer.Summarize(cmd.Context(), data, summary.Options{K: extractK, MaxSide: extractMaxSide})
	if err != nil {
		return fmt.Errorf("failed to extract palette: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	preview := extractOutput == "" && isTerminal(os.Stdout)
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeSummary(out, result, extractFormat, preview); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if extractOutput != "" {
		logger.Info("palette written", "path", extractOutput, "colours", result.Palette.Len())
	}
	return nil
}

// writeSummary renders a summary in the given format. Swatches are drawn only
// when preview is set.
func writeSummary(w io.Writer, s *summary.Summary, format string, preview bool) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case formatHex:
		for _, e := range s.Palette {
			line := e.Hex
			if preview {
				line = colour.FormatColourWithPreview(e.RGB, 4)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case formatTable:
		_, err := io.WriteString(w, paletteTable(s.Palette, preview).Render())
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// paletteTable lays a palette out one colour per row.
func paletteTable(p colour.Palette, preview bool) *Table {
	headers := []string{"#", "Hex", "RGB", "Percent"}
	if preview {
		headers = append([]string{"Swatch"}, headers...)
	}
	table := NewTable(headers)
	table.AlignRight(len(headers) - 1)

	for i, e := range p {
		row := []string{
			fmt.Sprintf("%d", i+1),
			e.Hex,
			e.RGB.String(),
			fmt.Sprintf("%.2f", e.Percent),
		}
		if preview {
			row = append([]string{colour.ColourPreviewWithText(e.RGB, e.Hex, 9)}, row...)
		}
		table.AddRow(row)
	}
	return table
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}
