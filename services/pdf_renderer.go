package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/config"
)

// RendererNames are the PDF renderers that can be selected in settings.
var RendererNames = []string{"raster", "vector"}

// Renderer turns document data into PDF bytes.
type Renderer interface {
	Name() string
	Render(data *QuotePDFData) ([]byte, error)
}

// RenderChain tries each renderer in order and returns the first document
// produced. A failure is logged and the next renderer is tried.
type RenderChain struct {
	app       core.App
	renderers []Renderer
}

// NewRenderChain orders the raster and vector renderers with preferred
// first. Unknown names fall back to raster first.
func NewRenderChain(app core.App, preferred string) *RenderChain {
	raster, vector := RasterRenderer{}, VectorRenderer{}
	if strings.EqualFold(preferred, vector.Name()) {
		return &RenderChain{app: app, renderers: []Renderer{vector, raster}}
	}
	return &RenderChain{app: app, renderers: []Renderer{raster, vector}}
}

// NewRenderChainOf builds a chain from explicit renderers.
func NewRenderChainOf(app core.App, renderers ...Renderer) *RenderChain {
	return &RenderChain{app: app, renderers: renderers}
}

// Render returns the PDF and the name of the renderer that produced it.
func (c *RenderChain) Render(data *QuotePDFData) ([]byte, string, error) {
	var errs []error
	for _, r := range c.renderers {
		pdf, err := r.Render(data)
		if err == nil {
			return pdf, r.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		if c.app != nil {
			c.app.Logger().Warn("pdf renderer failed, trying next",
				"renderer", r.Name(), "quote", data.QuoteNumber, "error", err)
		}
	}
	return nil, "", fmt.Errorf("render %s: %w", data.QuoteNumber, errors.Join(errs...))
}

// decodeImage reads a base64 image, with or without a data URL prefix.
func decodeImage(s string) (image.Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty image")
	}
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// pngBytes decodes a base64 image and re-encodes it as PNG scaled to fit
// within maxW x maxH pixels.
func pngBytes(s string, maxW, maxH int) ([]byte, error) {
	img, err := decodeImage(s)
	if err != nil {
		return nil, err
	}
	img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Documents loads quotes into QuotePDFData and renders them with the
// renderer chosen in settings.
type Documents struct {
	app core.App
	cfg *config.Config
}

func NewDocuments(app core.App, cfg *config.Config) *Documents {
	return &Documents{app: app, cfg: cfg}
}

// Data builds the document for a quote of either kind.
func (d *Documents) Data(kind QuoteKind, id string) (*QuotePDFData, error) {
	rec, err := d.app.FindRecordById(kind.Collection(), id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, id)
	}
	settings, err := LoadSettings(d.app, d.cfg)
	if err != nil {
		return nil, err
	}
	if kind == KindInland {
		return BuildInlandPDFData(d.app, settings, rec)
	}
	return BuildQuotePDFData(d.app, settings, rec)
}

// PDF renders a quote and returns the bytes and download filename.
func (d *Documents) PDF(kind QuoteKind, id string) ([]byte, string, error) {
	data, err := d.Data(kind, id)
	if err != nil {
		return nil, "", err
	}
	pdf, used, err := NewRenderChain(d.app, data.Company.PDFRenderer).Render(data)
	if err != nil {
		return nil, "", err
	}
	d.app.Logger().Info("quote pdf rendered", "quote", data.QuoteNumber, "renderer", used, "bytes", len(pdf))
	return pdf, data.Filename, nil
}
