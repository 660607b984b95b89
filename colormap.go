package aoilib

import (
	"image/color"
	"strings"
)

// 渐变色带锚点，pos取值[0,1]
type paletteStop struct {
	pos     float64
	r, g, b uint8
}

// matplotlib viridis色带锚点
var viridisPalette = []paletteStop{
	{0.00, 68, 1, 84},
	{0.25, 59, 82, 139},
	{0.50, 33, 145, 140},
	{0.75, 94, 201, 98},
	{1.00, 253, 231, 37},
}

// matplotlib Blues色带锚点
var bluesPalette = []paletteStop{
	{0.00, 247, 251, 255},
	{0.25, 198, 219, 239},
	{0.50, 107, 174, 214},
	{0.75, 33, 113, 181},
	{1.00, 8, 48, 107},
}

// matplotlib terrain色带锚点
var terrainPalette = []paletteStop{
	{0.00, 51, 51, 153},
	{0.15, 0, 153, 255},
	{0.25, 0, 204, 102},
	{0.50, 255, 255, 153},
	{0.75, 128, 92, 84},
	{1.00, 255, 255, 255},
}

// 按数据类别确定的渲染样式
type RenderStyle struct {
	Category string
	match    string
	palette  []paletteStop
	Label    string
}

// 类别查找表：按路径关键词匹配，最后一项为兜底默认
var renderStyles = []RenderStyle{
	{Category: "precipitation", match: "prec", palette: bluesPalette, Label: "Precipitation (mm)"},
	{Category: "elevation", match: "elev", palette: terrainPalette, Label: "Elevation (m)"},
	{Category: "default", palette: viridisPalette, Label: "Value"},
}

// 由影像相对路径解析渲染样式，任何输入都有确定结果
func ResolveRenderStyle(relPath string) RenderStyle {
	p := strings.ToLower(relPath)
	for _, s := range renderStyles {
		if s.match == "" || strings.Contains(p, s.match) {
			return s
		}
	}
	return renderStyles[len(renderStyles)-1]
}

// 色带插值，t超出[0,1]时取端点色
func (s RenderStyle) Lookup(t float64) color.RGBA {
	stops := s.palette
	if t <= stops[0].pos {
		return color.RGBA{stops[0].r, stops[0].g, stops[0].b, 0xff}
	}
	last := stops[len(stops)-1]
	if t >= last.pos {
		return color.RGBA{last.r, last.g, last.b, 0xff}
	}
	for i := 1; i < len(stops); i++ {
		if t > stops[i].pos {
			continue
		}
		lo, hi := stops[i-1], stops[i]
		k := (t - lo.pos) / (hi.pos - lo.pos)
		return color.RGBA{
			R: lerpByte(lo.r, hi.r, k),
			G: lerpByte(lo.g, hi.g, k),
			B: lerpByte(lo.b, hi.b, k),
			A: 0xff,
		}
	}
	return color.RGBA{last.r, last.g, last.b, 0xff}
}

func lerpByte(a, b uint8, k float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*k + 0.5)
}
