package aoilib

import "os"

const (
	FILE_EXT_SHP    = ".shp"
	FILE_EXT_CPG    = ".cpg"
	FILE_EXT_ZIP    = ".zip"
	FILE_EXT_TIF    = ".tif"
	FILE_EXT_JSON   = ".json"
	SHAPE_ENCODING  = "UTF-8"
	LATIN1_ENC      = "LATIN1"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	OO_ENCODING     = "ENCODING=" + LATIN1_ENC
	UNIVERSAL_SRID  = 4326
	GEOJSON_SRID    = 4326
	UTM_SRID        = 32643 // UTM 43N，覆盖孟买
	WKT_ALG_SRID    = 3857

	TMP_GEOJSON = "geo_%s" + FILE_EXT_JSON

	PLOT_SUFFIX = "_plot.png"
	PLOT_TITLE  = "Mumbai Region: "

	// 渲染上下限取有效值的2%/98%分位数
	LowerClipQuantile = 0.02
	UpperClipQuantile = 0.98

	SimplifyT = 1.0

	ErrColumnMissingTemplate = `shp文件中缺失【%s】字段`
	ErrColumnEmptyTemplate   = `shp文件图斑中【%s】字段为空`
)

// 孟买区域边界框，(lon1, lon2, lat1, lat2)
var MumbaiSpan = [4]float64{72.67494596150834, 73.09788598906245, 18.822731593095607, 19.4042741309825}

// 批处理配置，构造后不可变
type BatchConfig struct {
	InputRoot  string
	OutputRoot string
	AoiSpan    [4]float64 // 未提供时取MumbaiSpan
	AoiWkt     string     // 可选，提供时优先于AoiSpan
	AoiSrid    int        // 默认4326
	RasterExts []string   // 默认[".tif"]
	NoRender   bool       // 跳过预览图生成
	TmpDir     string
}

func (c *BatchConfig) setDefaults() {
	if c.AoiSrid == 0 {
		c.AoiSrid = UNIVERSAL_SRID
	}
	if c.AoiWkt == "" {
		span := c.AoiSpan
		if span == [4]float64{} {
			span = MumbaiSpan
		}
		c.AoiSpan = span
		c.AoiWkt = SpanToWkt(span)
	}
	if len(c.RasterExts) == 0 {
		c.RasterExts = []string{FILE_EXT_TIF}
	}
}

// 配置校验，在setDefaults填充之前调用
func (c *BatchConfig) validate() (err error) {
	if c.InputRoot == "" || c.OutputRoot == "" {
		return ErrBadConfig
	}
	info, err := os.Stat(c.InputRoot)
	if err != nil || !info.IsDir() {
		return ErrBadConfig
	}
	if span := c.AoiSpan; c.AoiWkt == "" && span != ([4]float64{}) &&
		(span[0] >= span[1] || span[2] >= span[3]) {
		return ErrBadConfig
	}
	// 输出根目录无法创建时整批终止
	return os.MkdirAll(c.OutputRoot, os.ModePerm)
}
