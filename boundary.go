package aoilib

import (
	"fmt"
	"unicode/utf8"

	"github.com/wgdzlh/aoilib/log"
	"github.com/wgdzlh/aoilib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 合并shp内全部要素为单个几何，默认统一到4326坐标系
func (g *GdalToolbox) parseShp(shp string, noTrans ...bool) (ret gdal.Geometry, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	var (
		layer    = ds.LayerByIndex(0)
		mayTrans = len(noTrans) == 0 || !noTrans[0]
		srid     int
		feature  *gdal.Feature
		gc       []destroyable
	)
	if mayTrans {
		if srid, err = g.getSrid(layer.SpatialReference()); err != nil {
			return
		}
	}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	ret = gdal.Create(gdal.GT_Polygon)
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			gc = append(gc, ret)
			ret = ret.Union(feature.Geometry())
		} else {
			break
		}
	}
	if mayTrans && srid != UNIVERSAL_SRID {
		var tRef gdal.SpatialReference
		if tRef, err = g.getSridRef(UNIVERSAL_SRID); err == nil {
			if err = ret.TransformTo(tRef); err != nil {
				log.Error(g.logTag+"geo transform failed", zap.Error(err))
			}
		}
		if err != nil {
			gc = append(gc, ret)
		}
	}
	return
}

// 将shp转为单个WKB（srid=4326）
func (g *GdalToolbox) GetWkbFromShp(shp string) (ret GdalGeo, err error) {
	log.Info(g.logTag+"start shp wkb trans", zap.String("shp", shp))
	geo, err := g.parseShp(shp)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if !geo.IsEmpty() {
		ret, err = geo.ToWKB()
	}
	log.Info(g.logTag+"got wkb from shp", zap.String("shp", shp), zap.Bool("succeed", err == nil && len(ret) > 0))
	return
}

// 将shp转为单个WKT（srid=4326）
func (g *GdalToolbox) GetWktFromShp(shp string) (ret string, err error) {
	log.Info(g.logTag+"start shp wkt trans", zap.String("shp", shp))
	geo, err := g.parseShp(shp)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if !geo.IsEmpty() {
		ret, err = geo.ToWKT()
	}
	log.Info(g.logTag+"got wkt from shp", zap.String("shp", shp), zap.Bool("succeed", err == nil && ret != ""))
	return
}

// 加载AOI边界矢量（shp文件或其zip包），编码统一为UTF-8后合并各要素，
// labelField非空时一并提取属性标签
func (g *GdalToolbox) LoadBoundary(path, labelField string) (info BoundaryInfo, err error) {
	shp := path
	isUtf8 := false
	if utils.HasSuffixFold(path, FILE_EXT_ZIP) {
		var dir string
		if dir, err = utils.GetUniqSubDir(g.tmpDir); err != nil {
			return
		}
		if shp, isUtf8, err = utils.GetShpInZip(path, dir); err != nil {
			log.Error(g.logTag+"get shp in zip failed", zap.String("zip", path), zap.Error(err))
			return
		}
	} else {
		isUtf8 = utils.IsUtf8Cpg(utils.SidecarPath(shp, FILE_EXT_SHP, FILE_EXT_CPG))
	}
	if !isUtf8 {
		if shp, err = g.normalizeShapefileEncoding(shp); err != nil {
			return
		}
	}
	info.Shp = shp
	if info.Geom, err = g.GetWkbFromShp(shp); err != nil {
		return
	}
	if len(info.Geom) == 0 {
		err = ErrGdalEmptyShp
		return
	}
	if labelField != "" {
		info.Labels, err = g.GetLabelsFromShapefile(shp, labelField)
	}
	return
}

// 将边界shp统一到目标投影坐标系（默认UTM 43N），已一致时原样返回
func (g *GdalToolbox) StandardizeProjection(shp string, tSrid ...int) (out string, err error) {
	target := UTM_SRID
	if len(tSrid) > 0 && tSrid[0] > 0 {
		target = tSrid[0]
	}
	srid, err := g.GetSridOfShapefile(shp)
	if err != nil || srid == target {
		out = shp
		return
	}
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"start transform shp", zap.String("shp", shp), zap.Int("srid", target))
	prefix := utils.TrimSuffixFold(shp, FILE_EXT_SHP)
	out = prefix + fmt.Sprintf("_%d"+FILE_EXT_SHP, target)
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-t_srs", fmt.Sprintf("epsg:%d", target), "-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag + "VectorTranslate failed")
		return
	}
	dds.Close() // 生成转换后的shp文件
	log.Info(g.logTag+"end transform shp", zap.String("shp", out))
	return
}

// 将非UTF-8编码的shp转写出UTF-8编码副本，源编码按Latin-1处理
func (g *GdalToolbox) normalizeShapefileEncoding(shp string) (out string, err error) {
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, []string{OO_ENCODING}, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"start encoding shp", zap.String("shp", shp))
	prefix := utils.TrimSuffixFold(shp, FILE_EXT_SHP)
	out = prefix + "_utf8" + FILE_EXT_SHP
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag + "VectorTranslate failed")
		return
	}
	dds.Close() // 生成转换后的shp文件
	log.Info(g.logTag+"end encoding shp", zap.String("shp", out))
	return
}

// 获取shp文件中的标签
func (g *GdalToolbox) GetLabelsFromShapefile(shp, labelField string) (labels []string, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	labelIdx := layer.Definition().FieldIndex(labelField)
	if labelIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, labelField)
		return
	}
	var (
		labelSet = map[string]struct{}{}
		feature  *gdal.Feature
		label    string
		cnt      int
		gc       []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			label = feature.FieldAsString(labelIdx)
			if label == "" {
				err = fmt.Errorf(ErrColumnEmptyTemplate, labelField)
				return
			}
			// dbf未声明编码时GDAL原样返回字节，按Latin-1转写
			if !utf8.ValidString(label) {
				label, _ = utils.Latin1StrToUtf8(label)
			}
			labelSet[utils.PurifyForUtf8(label)] = struct{}{}
			cnt++
		} else {
			break
		}
	}
	for k := range labelSet {
		labels = append(labels, k)
	}
	log.Info(g.logTag+"got labels from shp", zap.String("file", shp), zap.Any("labels", labels), zap.Int("cnt", cnt))
	return
}
