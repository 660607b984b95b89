package aoilib

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/wgdzlh/aoilib/log"

	gdal "github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	Dataset  = gdal.Dataset
	Geometry = gdal.Geometry
)

var registerGdal = sync.OnceFunc(gdal.RegisterAll)

// 栅格元信息，随剪切同步更新
type RasterMeta struct {
	Width      int
	Height     int
	Bands      int
	DataType   gdal.DataType
	NoData     *float64
	Projection string // WKT
	Transform  [6]float64
}

// 剪切结果：各波段窗口数据及窗口仿射变换
type ClippedRaster struct {
	Data      [][]float64
	Width     int
	Height    int
	Transform [6]float64
}

func (g *GdalToolbox) openRaster(tif string) (ds *Dataset, err error) {
	registerGdal()
	ds, err = gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = ErrInvalidTif
	}
	return
}

func (g *GdalToolbox) readMeta(ds *Dataset) (meta RasterMeta, err error) {
	st := ds.Structure()
	if st.NBands == 0 || st.SizeX == 0 || st.SizeY == 0 {
		err = ErrEmptyTif
		return
	}
	meta.Width = st.SizeX
	meta.Height = st.SizeY
	meta.Bands = st.NBands
	meta.DataType = st.DataType
	if meta.Transform, err = ds.GeoTransform(); err != nil {
		log.Error(g.logTag+"tif has no geotransform", zap.Error(err))
		err = ErrWrongTif
		return
	}
	if nd, ok := ds.Bands()[0].NoData(); ok {
		meta.NoData = &nd
	}
	if sr := ds.SpatialRef(); sr != nil {
		meta.Projection, _ = sr.WKT()
	}
	return
}

// 元信息同步：尺寸与仿射变换取自剪切窗口，其余字段原样继承
func syncMeta(src RasterMeta, clip *ClippedRaster) RasterMeta {
	out := src
	out.Width = clip.Width
	out.Height = clip.Height
	out.Transform = clip.Transform
	return out
}

// 按元信息将各波段数据写为LZW压缩的GTiff
func (g *GdalToolbox) writeRaster(out string, meta RasterMeta, data [][]float64) (err error) {
	registerGdal()
	if len(data) != meta.Bands || meta.Bands == 0 {
		return ErrWrongTif
	}
	ds, err := gdal.Create(gdal.GTiff, out, meta.Bands, meta.DataType, meta.Width, meta.Height,
		gdal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.String("out", out), zap.Error(err))
		return ErrGdalDriverCreate
	}
	defer func() {
		if e := ds.Close(); err == nil && e != nil {
			log.Error(g.logTag+"flush tif failed", zap.String("out", out), zap.Error(e))
			err = ErrClipWrite
		}
	}()
	if err = ds.SetGeoTransform(meta.Transform); err != nil {
		log.Error(g.logTag+"set tif transform failed", zap.Error(err))
		err = ErrClipWrite
		return
	}
	if meta.Projection != "" {
		var sr *gdal.SpatialRef
		if sr, err = gdal.NewSpatialRefFromWKT(meta.Projection); err != nil {
			log.Error(g.logTag+"parse tif crs failed", zap.Error(err))
			err = ErrClipWrite
			return
		}
		err = ds.SetSpatialRef(sr)
		sr.Close()
		if err != nil {
			log.Error(g.logTag+"set tif crs failed", zap.Error(err))
			err = ErrClipWrite
			return
		}
	}
	if meta.NoData != nil {
		if err = ds.SetNoData(*meta.NoData); err != nil {
			log.Error(g.logTag+"set tif nodata failed", zap.Error(err))
			err = ErrClipWrite
			return
		}
	}
	for i, band := range ds.Bands() {
		if err = band.Write(0, 0, data[i], meta.Width, meta.Height); err != nil {
			log.Error(g.logTag+"write tif band failed", zap.Int("band", i), zap.Error(err))
			err = ErrClipWrite
			return
		}
	}
	return
}

// 按边界矢量WKB（srid=4326）剪切单张影像，输出LZW压缩的GTiff。
// 边界坐标系转换由gdalwarp根据cutline自带的坐标系处理。
func (g *GdalToolbox) CropRasterWithBoundary(tif string, boundary GdalGeo, out string) (err error) {
	registerGdal()
	geoJson, err := g.WkbToGeoJSON(boundary, GEOJSON_SRID)
	if err != nil {
		return
	}
	var (
		tmpGeoJson = filepath.Join(g.tmpDir, fmt.Sprintf(TMP_GEOJSON, uuid.NewString()))
		tmpTif     = out + "_tmp.tif"
	)
	log.Info(g.logTag+"crop raster with boundary", zap.String("tif", tif), zap.String("out", out))
	if err = os.WriteFile(tmpGeoJson, geoJson, os.ModePerm); err != nil {
		return
	}
	defer os.Remove(tmpGeoJson)
	sds, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer sds.Close()
	ods, err := gdal.Warp(tmpTif, []*Dataset{sds}, []string{"-cutline", tmpGeoJson, "-crop_to_cutline", "-overwrite"})
	if err != nil {
		log.Error(g.logTag+"failed to crop raster", zap.Error(err))
		err = ErrClipWrite
		return
	}
	defer os.Remove(tmpTif)
	defer ods.Close()
	finalDs, err := ods.Translate(out, []string{"-co", "compress=lzw"})
	if err != nil {
		log.Error(g.logTag+"failed to translate tif", zap.Error(err))
		err = ErrClipWrite
		return
	}
	finalDs.Close()
	return
}
