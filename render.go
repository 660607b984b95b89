package aoilib

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wgdzlh/aoilib/log"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/stat"
)

// 出图画幅，对应8x6英寸、150dpi
const (
	plotWidth  = 1200
	plotHeight = 900

	panelLeft   = 60
	panelTop    = 70
	panelRight  = 1020
	panelBottom = 840

	barLeft   = 1060
	barRight  = 1090
	barTop    = 120
	barBottom = 780

	titleBaseline = 42
)

var (
	plotBg   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	plotText = color.RGBA{0, 0, 0, 0xff}
)

// 有效样本两端分位数截断，压制离群值对色彩映射的拉伸
func computeClipBounds(valid []float64) (vmin, vmax float64) {
	sorted := make([]float64, len(valid))
	copy(sorted, valid)
	sort.Float64s(sorted)
	vmin = stat.Quantile(LowerClipQuantile, stat.LinInterp, sorted, nil)
	vmax = stat.Quantile(UpperClipQuantile, stat.LinInterp, sorted, nil)
	return
}

// 渲染剪切结果首波段的预览图。全部样本均为哨兵时不出图，
// rendered为false且不计错误。
func (g *GdalToolbox) RenderPreview(clip *ClippedRaster, relPath, plotPath string) (rendered bool, err error) {
	valid := collectValid(clip.Data[0])
	if len(valid) == 0 {
		log.Info(g.logTag+"no valid data to plot", zap.String("tif", relPath))
		return
	}
	vmin, vmax := computeClipBounds(valid)
	style := ResolveRenderStyle(relPath)
	canvas := image.NewRGBA(image.Rect(0, 0, plotWidth, plotHeight))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{plotBg}, image.Point{}, draw.Src)

	drawDataPanel(canvas, clip, style, vmin, vmax)
	drawColorbar(canvas, style, vmin, vmax)
	title := PLOT_TITLE + filepath.Base(relPath)
	drawTextCentered(canvas, (panelLeft+panelRight)/2, titleBaseline, title)

	f, err := os.Create(plotPath)
	if err != nil {
		log.Error(g.logTag+"create plot failed", zap.String("plot", plotPath), zap.Error(err))
		return false, ErrRender
	}
	defer f.Close()
	if err = png.Encode(f, canvas); err != nil {
		log.Error(g.logTag+"encode plot failed", zap.String("plot", plotPath), zap.Error(err))
		return false, ErrRender
	}
	return true, nil
}

// 首波段按色带着色后缩放进画幅面板，保持纵横比，哨兵像元留白
func drawDataPanel(canvas *image.RGBA, clip *ClippedRaster, style RenderStyle, vmin, vmax float64) {
	src := image.NewRGBA(image.Rect(0, 0, clip.Width, clip.Height))
	span := vmax - vmin
	for i, v := range clip.Data[0] {
		if math.IsNaN(v) {
			continue
		}
		t := 0.0
		if span > 0 {
			t = (v - vmin) / span
		}
		x, y := i%clip.Width, i/clip.Width
		src.SetRGBA(x, y, style.Lookup(t))
	}
	boxW, boxH := panelRight-panelLeft, panelBottom-panelTop
	scale := min(float64(boxW)/float64(clip.Width), float64(boxH)/float64(clip.Height))
	dstW := max(int(float64(clip.Width)*scale), 1)
	dstH := max(int(float64(clip.Height)*scale), 1)
	x0 := panelLeft + (boxW-dstW)/2
	y0 := panelTop + (boxH-dstH)/2
	dst := image.Rect(x0, y0, x0+dstW, y0+dstH)
	xdraw.NearestNeighbor.Scale(canvas, dst, src, src.Bounds(), xdraw.Over, nil)
}

// 右侧竖向色带与上下边界刻度、量纲标签
func drawColorbar(canvas *image.RGBA, style RenderStyle, vmin, vmax float64) {
	barH := barBottom - barTop
	for y := barTop; y < barBottom; y++ {
		t := 1 - float64(y-barTop)/float64(barH-1)
		c := style.Lookup(t)
		for x := barLeft; x < barRight; x++ {
			canvas.SetRGBA(x, y, c)
		}
	}
	face := basicfont.Face7x13
	drawText(canvas, barRight+8, barTop+face.Height/2, formatTick(vmax))
	drawText(canvas, barRight+8, barBottom, formatTick(vmin))
	drawTextCentered(canvas, (barLeft+barRight)/2, barBottom+30, style.Label)
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func drawText(canvas *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  canvas,
		Src:  &image.Uniform{plotText},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawTextCentered(canvas *image.RGBA, cx, y int, s string) {
	w := font.MeasureString(basicfont.Face7x13, s).Ceil()
	drawText(canvas, cx-w/2, y, s)
}
