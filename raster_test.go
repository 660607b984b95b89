package aoilib

import (
	"testing"

	gdal "github.com/airbusgeo/godal"
)

func TestSyncMeta(t *testing.T) {
	nd := -9999.0
	src := RasterMeta{
		Width:      100,
		Height:     80,
		Bands:      3,
		DataType:   gdal.Float64,
		NoData:     &nd,
		Projection: "GEOGCS[...]",
		Transform:  testGT,
	}
	clip := &ClippedRaster{
		Width:     20,
		Height:    10,
		Transform: windowTransform(testGT, 40, 30),
	}
	out := syncMeta(src, clip)
	if out.Width != clip.Width || out.Height != clip.Height {
		t.Fatalf("dims = %dx%d, want %dx%d", out.Width, out.Height, clip.Width, clip.Height)
	}
	if out.Transform != clip.Transform {
		t.Fatalf("transform = %v", out.Transform)
	}
	// 其余字段原样继承
	if out.Bands != src.Bands || out.DataType != src.DataType ||
		out.NoData != src.NoData || out.Projection != src.Projection {
		t.Fatalf("inherited fields changed: %+v", out)
	}
	if src.Width != 100 || src.Height != 80 {
		t.Fatal("source meta mutated")
	}
}
