package render

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/opentype"
)

const (
	customFamily = "certificate"
	coreFamily   = "Helvetica"
)

// checkFont makes sure data parses as a TrueType/OpenType font and that the
// PDF writer can embed it. It uses a scratch document so a bad font never
// poisons the real one.
func checkFont(data []byte) (err error) {
	if _, err := opentype.Parse(data); err != nil {
		return fmt.Errorf("invalid font: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font embed panicked: %v", r)
		}
	}()
	scratch := gofpdf.New("P", "pt", "Letter", "")
	scratch.AddUTF8FontFromBytes(customFamily, "", data)
	scratch.SetFont(customFamily, "", 12)
	if scratch.GetStringWidth("Ag") <= 0 {
		return fmt.Errorf("font has no usable glyph metrics")
	}
	if err := scratch.Error(); err != nil {
		return fmt.Errorf("font embed failed: %w", err)
	}
	return nil
}

// face is the font used to stamp text on a page.
type face struct {
	family string
	utf8   bool
	tr     func(string) string
}

func (f face) text(s string) string {
	if f.utf8 || f.tr == nil {
		return s
	}
	return f.tr(s)
}

func coreFace(pdf *gofpdf.Fpdf) face {
	return face{family: coreFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func embedFace(pdf *gofpdf.Fpdf, data []byte) face {
	pdf.AddUTF8FontFromBytes(customFamily, "", data)
	return face{family: customFamily, utf8: true}
}
