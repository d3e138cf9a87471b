package pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"devfolio/internal/config"
	"devfolio/internal/preview"
)

// FileName 导出文件的固定名称。
const FileName = "resume.pdf"

const (
	// A4 在 96dpi 下的 CSS 像素尺寸。
	a4WidthPx  = 794
	a4HeightPx = 1123
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

// Exporter 把预览 HTML 转为 PDF 字节。
type Exporter interface {
	Export(ctx context.Context, html string) ([]byte, error)
}

var _ Exporter = (*RodExporter)(nil)

// RodExporter 使用 go-rod 驱动无头 Chromium：先按倍率截图 #resume，再把图片按 A4 宽度嵌入 PDF。
// 超出一页的部分由打印流程自然分页。
type RodExporter struct {
	browserBin  string
	scaleFactor float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRodExporter builds an exporter from config; zero values fall back to scale 2 and 60s.
func NewRodExporter(cfg config.ExportConfig, logger *slog.Logger) *RodExporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &RodExporter{
		browserBin:  cfg.BrowserBin,
		scaleFactor: cfg.ScaleFactor,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
	if e.scaleFactor <= 0 {
		e.scaleFactor = 2
	}
	if e.timeout <= 0 {
		e.timeout = 60 * time.Second
	}
	return e
}

// Export 实现 Exporter。
func (e *RodExporter) Export(ctx context.Context, html string) (_ []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	switch {
	case e.browserBin != "":
		launch = launch.Bin(e.browserBin)
	default:
		if path, ok := launcher.LookPath(); ok {
			launch = launch.Bin(path)
		}
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	image, err := e.capture(page, html)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resume captured", slog.Int("png_bytes", len(image)))

	return printImage(page, image)
}

func (e *RodExporter) capture(page *rod.Page, html string) ([]byte, error) {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             a4WidthPx,
		Height:            a4HeightPx,
		DeviceScaleFactor: e.scaleFactor,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	el, err := page.Element("#" + preview.ResumeElementID)
	if err != nil {
		return nil, fmt.Errorf("find #%s: %w", preview.ResumeElementID, err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot resume: %w", err)
	}
	return data, nil
}

func printImage(page *rod.Page, image []byte) ([]byte, error) {
	if err := page.SetDocumentContent(ImageDocument(image)); err != nil {
		return nil, fmt.Errorf("set image document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait image load: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(a4WidthIn),
		PaperHeight:       float64Ptr(a4HeightIn),
		MarginTop:         float64Ptr(0),
		MarginBottom:      float64Ptr(0),
		MarginLeft:        float64Ptr(0),
		MarginRight:       float64Ptr(0),
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

// ImageDocument 生成只包含一张 A4 宽度 PNG 的打印文档，高度按比例缩放。
func ImageDocument(png []byte) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><style>` +
		`@page { size: A4; margin: 0; }` +
		`html, body { margin: 0; padding: 0; background: #ffffff; }` +
		`img { display: block; width: 210mm; height: auto; }` +
		`</style></head><body><img alt="resume" src="data:image/png;base64,` +
		base64.StdEncoding.EncodeToString(png) +
		`"></body></html>`
}

func float64Ptr(value float64) *float64 {
	return &value
}
