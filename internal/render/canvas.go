// Package render lays out a deliberation document on two A4 pages.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Align is the horizontal anchoring of a text run relative to x.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Font families and styles, named as the core PDF fonts.
const (
	FontTimes     = "Times"
	FontHelvetica = "Helvetica"

	StyleRegular = ""
	StyleBold    = "B"
	StyleItalic  = "I"
)

// Canvas is the drawing surface the layout writes to. Units are millimetres,
// y is the text baseline, font sizes are points.
type Canvas interface {
	SetFont(family, style string, size float64)
	// StringWidth measures s in the current font.
	StringWidth(s string) float64
	Text(x, y float64, s string, align Align)
	Image(img Image, x, y, w, h float64)
	AddPage()
}

// Image is an embedded picture. Type is "PNG" or "JPG".
type Image struct {
	Name string
	Type string
	Data []byte
}

// Assets are the two seals every letter carries.
type Assets struct {
	Seal    Image // national seal, centred on page one
	Commune Image // municipal seal, under the administrative header
}

var (
	ErrMissingAsset = errors.New("render: missing image asset")
	ErrUnknownImage = errors.New("render: unsupported image format")
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

func imageType(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "PNG", nil
	case bytes.HasPrefix(data, jpegMagic):
		return "JPG", nil
	}
	return "", ErrUnknownImage
}

// NewImage wraps raw PNG or JPEG bytes.
func NewImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: %s", ErrMissingAsset, name)
	}
	typ, err := imageType(data)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", name, err)
	}
	return Image{Name: name, Type: typ, Data: data}, nil
}

// Validate fails when either seal is absent.
func (a Assets) Validate() error {
	if len(a.Seal.Data) == 0 {
		return fmt.Errorf("%w: seal", ErrMissingAsset)
	}
	if len(a.Commune.Data) == 0 {
		return fmt.Errorf("%w: commune", ErrMissingAsset)
	}
	return nil
}

// LoadAssets reads both seals from disk.
func LoadAssets(sealPath, communePath string) (Assets, error) {
	seal, err := loadImage("seal", sealPath)
	if err != nil {
		return Assets{}, err
	}
	commune, err := loadImage("commune", communePath)
	if err != nil {
		return Assets{}, err
	}
	return Assets{Seal: seal, Commune: commune}, nil
}

func loadImage(name, path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Image{}, fmt.Errorf("%w: %s (%s)", ErrMissingAsset, name, path)
		}
		return Image{}, fmt.Errorf("render: read %s: %w", path, err)
	}
	return NewImage(name, data)
}
