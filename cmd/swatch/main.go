// Swatch - dominant colour palettes from images
//
// Swatch summarises an image as a ranked list of its dominant colours, over
// HTTP or from the command line.
package main

import (
	"context"

	"github.com/jmylchreest/swatch/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
