// Package render produces certificate PDFs, stamping the recipient on a
// template page when one is available and synthesising a plain page otherwise.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/apperr"
)

// Mode says how a document was produced.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeFallback Mode = "fallback"
)

// Page geometry in points, measured from the bottom-left corner.
const (
	letterWidth  = 612.0
	letterHeight = 792.0

	nameSize     = 55.0
	nameBaseline = 270.0
	codeSize     = 12.0
	codeBaseline = 50.0

	qrSize   = 72.0
	qrMargin = 24.0
)

type rgb struct{ r, g, b int }

var (
	black = rgb{0, 0, 0}
	gold  = rgb{255, 214, 0}
	gray  = rgb{128, 128, 128}
)

// fallback page lines: text, x, y from bottom, size, color.
type line struct {
	text  string
	x, y  float64
	size  float64
	color rgb
}

var errNotConfigured = errors.New("not configured")

// Document is a rendered certificate.
type Document struct {
	Bytes        []byte
	Mode         Mode
	FontFallback bool
	Width        float64
	Height       float64
}

// DataURI returns the document as a base64 data URI.
func (d *Document) DataURI() string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(d.Bytes)
}

// Options configures a Renderer. Nil sources are treated as unavailable.
type Options struct {
	Template  Source
	Font      Source
	VerifyURL string
	Logger    *zap.Logger
}

// Renderer draws certificates.
type Renderer struct {
	template  Source
	font      Source
	verifyURL string
	logger    *zap.Logger
}

// New builds a renderer.
func New(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		template:  opts.Template,
		font:      opts.Font,
		verifyURL: opts.VerifyURL,
		logger:    logger.With(zap.String("component", "renderer")),
	}
}

// Render produces the certificate for name and code. Missing or unreachable
// assets degrade to the fallback page or font. Unusable template bytes and
// serialization failures are returned as tagged errors.
func (r *Renderer) Render(ctx context.Context, name, code string) (*Document, error) {
	tpl, err := fetch(ctx, r.template)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.E(apperr.KindNetwork, "render.template", err)
		}
		r.logger.Warn("could not fetch certificate template, creating fallback",
			zap.String("location", location(r.template)), zap.Error(err))
		return r.renderFallback(name, code)
	}
	return r.renderTemplate(ctx, tpl, name, code)
}

// CheckAssets reports whether the template and font are reachable.
func (r *Renderer) CheckAssets(ctx context.Context) []AssetStatus {
	return []AssetStatus{
		probe(ctx, AssetTemplate, r.template),
		probe(ctx, AssetFont, r.font),
	}
}

func (r *Renderer) renderFallback(name, code string) (*Document, error) {
	pdf := newDocument()
	pdf.AddPage()
	f := coreFace(pdf)
	lines := []line{
		{text: "Certificate of Appreciation", x: 150, y: 700, size: 24, color: black},
		{text: "This is to certify that", x: 200, y: 650, size: 16, color: black},
		{text: name, x: 200, y: 600, size: 20, color: black},
		{text: code, x: 200, y: 100, size: 12, color: gray},
	}
	for _, l := range lines {
		pdf.SetFont(f.family, "", l.size)
		pdf.SetTextColor(l.color.r, l.color.g, l.color.b)
		pdf.Text(l.x, letterHeight-l.y, f.text(l.text))
	}
	r.stampQR(pdf, code, letterWidth, letterHeight)
	return finish(pdf, &Document{Mode: ModeFallback, FontFallback: true, Width: letterWidth, Height: letterHeight})
}

func (r *Renderer) renderTemplate(ctx context.Context, data []byte, name, code string) (*Document, error) {
	pdf := newDocument()
	imp, tplID, w, h, err := importTemplate(pdf, data)
	if err != nil {
		return nil, apperr.E(apperr.KindUnexpected, "render.template", err)
	}
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
	imp.UseImportedTemplate(pdf, tplID, 0, 0, w, h)

	f, fellBack := r.loadFace(ctx, pdf)
	if err := pdf.Error(); err != nil {
		return nil, apperr.E(apperr.KindFont, "render.font", err)
	}

	stampCentered(pdf, f, name, nameSize, h-nameBaseline, gold, w)
	stampCentered(pdf, f, code, codeSize, h-codeBaseline, gray, w)
	r.stampQR(pdf, code, w, h)
	return finish(pdf, &Document{Mode: ModeTemplate, FontFallback: fellBack, Width: w, Height: h})
}

// loadFace embeds the custom font, or returns Helvetica when it cannot be
// fetched or embedded.
func (r *Renderer) loadFace(ctx context.Context, pdf *gofpdf.Fpdf) (face, bool) {
	data, err := fetch(ctx, r.font)
	if err == nil {
		err = checkFont(data)
	}
	if err != nil {
		r.logger.Warn("font loading failed, using default font",
			zap.String("location", location(r.font)), zap.Error(err))
		return coreFace(pdf), true
	}
	return embedFace(pdf, data), false
}

func (r *Renderer) stampQR(pdf *gofpdf.Fpdf, code string, w, h float64) {
	if r.verifyURL == "" {
		return
	}
	png, err := qrcode.Encode(r.verifyURL+code, qrcode.Medium, 256)
	if err != nil {
		r.logger.Warn("qr encode failed", zap.String("code", code), zap.Error(err))
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	img := "verify-" + code
	pdf.RegisterImageOptionsReader(img, opts, bytes.NewReader(png))
	pdf.ImageOptions(img, w-qrSize-qrMargin, h-qrSize-qrMargin, qrSize, qrSize, false, opts, 0, "")
}

func stampCentered(pdf *gofpdf.Fpdf, f face, s string, size, yTop float64, c rgb, pageWidth float64) {
	pdf.SetFont(f.family, "", size)
	pdf.SetTextColor(c.r, c.g, c.b)
	txt := f.text(s)
	x := (pageWidth - pdf.GetStringWidth(txt)) / 2
	pdf.Text(x, yTop, txt)
}

func newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: letterWidth, Ht: letterHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Certificate of Appreciation", true)
	pdf.SetCreator("secure-cypher", true)
	return pdf
}

// importTemplate loads page one of data as a reusable template. The importer
// panics on malformed input, so that is turned into an error.
func importTemplate(pdf *gofpdf.Fpdf, data []byte) (imp *gofpdi.Importer, tplID int, w, h float64, err error) {
	if !looksLikePDF(data) {
		return nil, 0, 0, 0, errors.New("template is not a PDF document")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to load template: %v", rec)
		}
	}()

	imp = gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(data)
	tplID = imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	if err := pdf.Error(); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("failed to load template: %w", err)
	}

	w, h = letterWidth, letterHeight
	if box, ok := imp.GetPageSizes()[1]["/MediaBox"]; ok && box["w"] > 0 && box["h"] > 0 {
		w, h = box["w"], box["h"]
	}
	return imp, tplID, w, h, nil
}

func looksLikePDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

func finish(pdf *gofpdf.Fpdf, doc *Document) (*Document, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.E(apperr.KindLibrary, "render.serialize", err)
	}
	doc.Bytes = buf.Bytes()
	return doc, nil
}

func fetch(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errNotConfigured
	}
	return src.Fetch(ctx)
}

func location(src Source) string {
	if src == nil {
		return ""
	}
	return src.Location()
}
