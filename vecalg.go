package aoilib

import (
	"math"

	"github.com/wgdzlh/aoilib/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	BuffPercent  = 0.05
	BuffQuadSegs = 12
)

func (g *GdalToolbox) parseGeoWKT(wkt string, srid int) (ret gdal.Geometry, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse geo wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

// 简化几何并以腐蚀膨胀平滑毛刺，容差单位同输入坐标系
func (g *GdalToolbox) simpGeo(geo gdal.Geometry, t float64) (wkt string, err error) {
	defer geo.Destroy()
	if t <= 0 {
		t = SimplifyT
	}
	log.Info(g.logTag+"simplify geo", zap.Float64("tolerance", t))
	ret := geo.SimplifyPreservingTopology(t)
	defer ret.Destroy()
	area := ret.Area()
	if area <= 0 {
		return
	}
	buff := math.Sqrt(area) * BuffPercent
	eroded := ret.Buffer(-buff, BuffQuadSegs) // 腐蚀
	defer eroded.Destroy()
	dilated := eroded.Buffer(buff, BuffQuadSegs) // 膨胀
	defer dilated.Destroy()
	wkt, err = dilated.ToWKT()
	return
}

func (g *GdalToolbox) muffGeo(geo gdal.Geometry) (ret gdal.Geometry, err error) {
	switch geo.Type() {
	case gdal.GT_Polygon:
		err = removeHolesInPolygon(geo)
		ret = geo.Clone()
	case gdal.GT_MultiPolygon:
		var subGeo gdal.Geometry
		gNum := geo.GeometryCount()
		for i := 0; i < gNum; i++ {
			subGeo = geo.Geometry(i)
			if err = removeHolesInPolygon(subGeo); err != nil {
				return
			}
			if gNum == 1 {
				ret = subGeo.Clone()
				return
			}
		}
		ret = geo.UnionCascaded() // avoid overlaps
	default:
		err = ErrGdalWrongGeoType
	}
	return
}

func removeHolesInPolygon(geo gdal.Geometry) (err error) {
	gNum := geo.GeometryCount()
	for i := 1; i < gNum; i++ {
		if err = geo.RemoveGeometry(1, true); err != nil {
			return
		}
	}
	return
}

// 填充边界多边形的内部孔洞
func (g *GdalToolbox) FillBoundaryHoles(wkt string, srid int) (out string, err error) {
	log.Info(g.logTag + "start muff wkt")
	geo, err := g.parseGeoWKT(wkt, srid)
	if err != nil {
		return
	}
	defer geo.Destroy()
	muffed, err := g.muffGeo(geo)
	if err != nil {
		return
	}
	out, err = muffed.ToWKT()
	muffed.Destroy()
	return
}

// 简化边界多边形，建议在投影坐标系下以米制容差调用
func (g *GdalToolbox) SimplifyBoundary(wkt string, srid int, t float64) (out string, err error) {
	log.Info(g.logTag + "start simplify wkt")
	geo, err := g.parseGeoWKT(wkt, srid)
	if err != nil {
		return
	}
	out, err = g.simpGeo(geo, t)
	return
}
