package aoilib

import (
	"math"

	"github.com/wgdzlh/aoilib/log"

	gdal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// CRS调和：AOI几何以自身srid构建，再投影到影像坐标系
func (g *GdalToolbox) reprojectAoi(wkt string, srid int, ds *Dataset) (geo *Geometry, err error) {
	registerGdal()
	srcRef, err := gdal.NewSpatialRefFromEPSG(srid)
	if err != nil {
		log.Error(g.logTag+"invalid aoi srid", zap.Int("srid", srid), zap.Error(err))
		return nil, ErrReprojection
	}
	defer srcRef.Close()
	geo, err = gdal.NewGeometryFromWKT(wkt, srcRef)
	if err != nil {
		log.Error(g.logTag+"invalid aoi wkt", zap.Error(err))
		return nil, ErrReprojection
	}
	if err = geo.Reproject(ds.SpatialRef()); err != nil {
		log.Error(g.logTag+"aoi reprojection failed", zap.Error(err))
		geo.Close()
		return nil, ErrReprojection
	}
	return
}

// 影像四角经仿射变换后的包络范围
func rasterSpan(gt [6]float64, width, height int) (span [4]float64) {
	w, h := float64(width), float64(height)
	xs := [4]float64{}
	ys := [4]float64{}
	for i, c := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		xs[i], ys[i] = applyGeoTransform(gt, c[0], c[1])
	}
	span[0], span[1] = minMax4(xs)
	span[2], span[3] = minMax4(ys)
	return
}

func minMax4(v [4]float64) (mn, mx float64) {
	mn, mx = v[0], v[0]
	for _, x := range v[1:] {
		mn = min(mn, x)
		mx = max(mx, x)
	}
	return
}

// 两范围的交集，无重叠（含仅共边）时ok为false
func intersectSpans(a, b [4]float64) (out [4]float64, ok bool) {
	out[0] = max(a[0], b[0])
	out[1] = min(a[1], b[1])
	out[2] = max(a[2], b[2])
	out[3] = min(a[3], b[3])
	ok = out[0] < out[1] && out[2] < out[3]
	return
}

func applyGeoTransform(gt [6]float64, px, py float64) (x, y float64) {
	x = gt[0] + px*gt[1] + py*gt[2]
	y = gt[3] + px*gt[4] + py*gt[5]
	return
}

func invertGeoTransform(gt [6]float64) (inv [6]float64, err error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		err = ErrWrongTif
		return
	}
	inv[0] = (gt[2]*gt[3] - gt[0]*gt[5]) / det
	inv[1] = gt[5] / det
	inv[2] = -gt[2] / det
	inv[3] = (gt[4]*gt[0] - gt[1]*gt[3]) / det
	inv[4] = -gt[4] / det
	inv[5] = gt[1] / det
	return
}

// 取整前的像素坐标容差，吸收反算中的浮点误差
const pixEps = 1e-6

// 范围四角反算像素坐标，外扩取整并截断到影像内，得到剪切窗口
func windowFromSpan(gt [6]float64, span [4]float64, width, height int) (x0, y0, w, h int, err error) {
	inv, err := invertGeoTransform(gt)
	if err != nil {
		return
	}
	pxs := [4]float64{}
	pys := [4]float64{}
	for i, c := range [4][2]float64{{span[0], span[2]}, {span[0], span[3]}, {span[1], span[2]}, {span[1], span[3]}} {
		pxs[i], pys[i] = applyGeoTransform(inv, c[0], c[1])
	}
	minPx, maxPx := minMax4(pxs)
	minPy, maxPy := minMax4(pys)
	x0 = max(int(math.Floor(minPx+pixEps)), 0)
	y0 = max(int(math.Floor(minPy+pixEps)), 0)
	x1 := min(int(math.Ceil(maxPx-pixEps)), width)
	y1 := min(int(math.Ceil(maxPy-pixEps)), height)
	w = x1 - x0
	h = y1 - y0
	if w <= 0 || h <= 0 {
		err = ErrNoOverlap
	}
	return
}

// 窗口原点处的仿射变换
func windowTransform(gt [6]float64, x0, y0 int) (out [6]float64) {
	out = gt
	out[0], out[3] = applyGeoTransform(gt, float64(x0), float64(y0))
	return
}

// 栅格剪切：按AOI（已在影像坐标系下）取窗口读出各波段，窗口外像元置为
// 声明的nodata（未声明时置0）。AOI与影像无重叠时返回ErrNoOverlap。
func (g *GdalToolbox) clipToGeometry(ds *Dataset, geo *Geometry, meta RasterMeta) (clip *ClippedRaster, err error) {
	bounds, err := geo.Bounds()
	if err != nil {
		log.Error(g.logTag+"aoi bounds failed", zap.Error(err))
		err = ErrClipWrite
		return
	}
	aoiSpan := [4]float64{bounds[0], bounds[2], bounds[1], bounds[3]}
	inter, ok := intersectSpans(aoiSpan, rasterSpan(meta.Transform, meta.Width, meta.Height))
	if !ok {
		err = ErrNoOverlap
		return
	}
	x0, y0, w, h, err := windowFromSpan(meta.Transform, inter, meta.Width, meta.Height)
	if err != nil {
		return
	}
	data := make([][]float64, meta.Bands)
	for i, band := range ds.Bands() {
		buf := make([]float64, w*h)
		if err = band.Read(x0, y0, buf, w, h); err != nil {
			log.Error(g.logTag+"read tif band failed", zap.Int("band", i), zap.Error(err))
			err = ErrTifReadFailed
			return
		}
		data[i] = buf
	}
	wgt := windowTransform(meta.Transform, x0, y0)
	mask, err := g.rasterizeMask(ds, geo, wgt, w, h)
	if err != nil {
		return
	}
	fill := 0.0
	if meta.NoData != nil {
		fill = *meta.NoData
	}
	for _, buf := range data {
		for j, m := range mask {
			if m == 0 {
				buf[j] = fill
			}
		}
	}
	clip = &ClippedRaster{
		Data:      data,
		Width:     w,
		Height:    h,
		Transform: wgt,
	}
	return
}

// AOI几何在剪切窗口上烧录的像元掩膜（像元中心落入几何内为1）
func (g *GdalToolbox) rasterizeMask(ds *Dataset, geo *Geometry, wgt [6]float64, w, h int) (mask []byte, err error) {
	mem, err := gdal.Create(gdal.Memory, "", 1, gdal.Byte, w, h)
	if err != nil {
		log.Error(g.logTag+"create mask dataset failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	defer mem.Close()
	if err = mem.SetGeoTransform(wgt); err != nil {
		log.Error(g.logTag+"set mask transform failed", zap.Error(err))
		err = ErrClipWrite
		return
	}
	if err = mem.SetSpatialRef(ds.SpatialRef()); err != nil {
		log.Error(g.logTag+"set mask crs failed", zap.Error(err))
		err = ErrClipWrite
		return
	}
	if err = mem.RasterizeGeometry(geo, gdal.Values(1)); err != nil {
		log.Error(g.logTag+"rasterize aoi failed", zap.Error(err))
		err = ErrClipWrite
		return
	}
	mask = make([]byte, w*h)
	if err = mem.Bands()[0].Read(0, 0, mask, w, h); err != nil {
		log.Error(g.logTag+"read mask failed", zap.Error(err))
		err = ErrClipWrite
	}
	return
}
