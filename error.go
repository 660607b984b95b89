package aoilib

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrGdalEmptyShp     = errors.New("gdal shp is empty")
	ErrVoidSrid         = errors.New("gdal shp with void srid")
	ErrGdalWrongGeoType = errors.New("gdal wrong geo type")
	ErrInvalidWKT       = errors.New("invalid WKT")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrWrongTif         = errors.New("malformed tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrEmptyTif         = errors.New("empty tif")
	ErrBadConfig        = errors.New("bad pipeline config")

	// 单文件处理错误类别
	ErrReprojection = errors.New("aoi reprojection failed")
	ErrNoOverlap    = errors.New("aoi does not overlap raster")
	ErrClipWrite    = errors.New("clip or write failed")
	ErrRender       = errors.New("render failed")
)
