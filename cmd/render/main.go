// Command render turns a deliberation document (JSON) into a PDF offline,
// with the same seals and layout as the API.
//
//	render -in deliberation.json -out deliberation.pdf
//
// Without -in the document is read from stdin; without -out the PDF goes to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-deliberations/internal/config"
	"github.com/diewo77/go-deliberations/internal/document"
	"github.com/diewo77/go-deliberations/internal/render"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	in := flag.String("in", "", "document JSON file (default stdin)")
	out := flag.String("out", "", "PDF output file (default stdout)")
	seal := flag.String("seal", cfg.Assets.SealImage, "national seal image (PNG or JPEG)")
	commune := flag.String("commune", cfg.Assets.CommuneImage, "municipal seal image (PNG or JPEG)")
	flag.Parse()

	if err := run(*in, *out, *seal, *commune, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, sealPath, communePath string, stdin io.Reader, stdout io.Writer) error {
	var raw []byte
	var err error
	if inPath == "" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(inPath)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	doc, err := document.Decode(raw)
	if err != nil {
		return err
	}
	assets, err := render.LoadAssets(sealPath, communePath)
	if err != nil {
		return err
	}
	pdf, err := render.Render(doc, assets)
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = stdout.Write(pdf)
		return err
	}
	return os.WriteFile(outPath, pdf, 0o644)
}
