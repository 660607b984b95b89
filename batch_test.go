package aoilib

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gdal "github.com/airbusgeo/godal"
)

func epsgWkt(t *testing.T, srid int) string {
	t.Helper()
	sr, err := gdal.NewSpatialRefFromEPSG(srid)
	if err != nil {
		t.Fatal(err)
	}
	defer sr.Close()
	prj, err := sr.WKT()
	if err != nil {
		t.Fatal(err)
	}
	return prj
}

// 写一张60x40的单波段测试影像，像元值为序号模17
func writeTestRaster(t *testing.T, g *GdalToolbox, path, prj string, gt [6]float64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	nd := -9999.0
	meta := RasterMeta{
		Width:      60,
		Height:     40,
		Bands:      1,
		DataType:   gdal.Float64,
		NoData:     &nd,
		Projection: prj,
		Transform:  gt,
	}
	data := make([]float64, 60*40)
	for i := range data {
		data[i] = float64(i % 17)
	}
	if err := g.writeRaster(path, meta, [][]float64{data}); err != nil {
		t.Fatal(err)
	}
}

func TestMirrorPath(t *testing.T) {
	out, err := mirrorPath("/in", "/out", "/in/climate/prec/2020.tif")
	if err != nil {
		t.Fatal(err)
	}
	if out != filepath.Join("/out", "climate", "prec", "2020.tif") {
		t.Fatalf("mirrored path = %s", out)
	}
	out, err = mirrorPath("/in", "/out", "/in/top.tif")
	if err != nil || out != filepath.Join("/out", "top.tif") {
		t.Fatalf("got %s, %v", out, err)
	}
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{Status: StatusWritten},
		{Status: StatusWritten},
		{Status: StatusSkipped},
		{Status: StatusFailed},
	}
	report := summarize(results, time.Second)
	if report.Written != 2 || report.Skipped != 1 || report.Failed != 1 {
		t.Fatalf("counts = (%d, %d, %d)", report.Written, report.Skipped, report.Failed)
	}
	if len(report.Results) != 4 || report.Elapsed != time.Second {
		t.Fatal("results or elapsed not carried over")
	}
}

func TestIsRaster(t *testing.T) {
	p := &Pipeline{cfg: BatchConfig{RasterExts: []string{FILE_EXT_TIF}}}
	if !p.isRaster("a/b.tif") || !p.isRaster("a/B.TIF") {
		t.Fatal("tif should match")
	}
	if p.isRaster("a/b.tiff") || p.isRaster("a/b.txt") || p.isRaster("a/tif") {
		t.Fatal("non-tif should not match")
	}
}

func TestBatchConfigDefaults(t *testing.T) {
	c := BatchConfig{InputRoot: "i", OutputRoot: "o"}
	c.setDefaults()
	if c.AoiSrid != UNIVERSAL_SRID {
		t.Fatalf("srid = %d", c.AoiSrid)
	}
	if c.AoiWkt != SpanToWkt(MumbaiSpan) || c.AoiSpan != MumbaiSpan {
		t.Fatalf("aoi not defaulted to mumbai: %s", c.AoiWkt)
	}
	if len(c.RasterExts) != 1 || c.RasterExts[0] != FILE_EXT_TIF {
		t.Fatalf("exts = %v", c.RasterExts)
	}
	custom := BatchConfig{AoiSpan: [4]float64{1, 2, 3, 4}}
	custom.setDefaults()
	if custom.AoiWkt != SpanToWkt([4]float64{1, 2, 3, 4}) {
		t.Fatalf("custom span wkt = %s", custom.AoiWkt)
	}
}

// 三类输入各走完整管线：正常剪切出图、AOI不相交跳过、缺失坐标系失败
func TestPipelineRun(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	prj := epsgWkt(t, UNIVERSAL_SRID)
	inRoot := t.TempDir()
	writeTestRaster(t, g, filepath.Join(inRoot, "prec", "good.tif"), prj, testGT)
	writeTestRaster(t, g, filepath.Join(inRoot, "far.tif"), prj, [6]float64{10, 0.01, 0, 5, 0, -0.01})
	writeTestRaster(t, g, filepath.Join(inRoot, "nocrs.tif"), "", testGT)

	outRoot := filepath.Join(t.TempDir(), "out")
	p, err := NewPipeline(BatchConfig{
		InputRoot:  inRoot,
		OutputRoot: outRoot,
		AoiSpan:    [4]float64{72.6, 72.8, 19.1, 19.3},
		TmpDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 3 || report.Written != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	byName := map[string]FileResult{}
	for _, r := range report.Results {
		byName[filepath.Base(r.Input)] = r
	}
	good := byName["good.tif"]
	if good.Status != StatusWritten || good.Stage != StageDone {
		t.Fatalf("good = %+v", good)
	}
	if good.Output != filepath.Join(outRoot, "prec", "good.tif") {
		t.Fatalf("output = %s", good.Output)
	}
	if _, err = os.Stat(good.Output); err != nil {
		t.Fatal(err)
	}
	if good.Plot != filepath.Join(outRoot, "prec", "good_plot.png") {
		t.Fatalf("plot = %s", good.Plot)
	}
	if _, err = os.Stat(good.Plot); err != nil {
		t.Fatal(err)
	}
	far := byName["far.tif"]
	if far.Status != StatusSkipped || far.Stage != StageReprojected || far.Reason != ErrNoOverlap.Error() {
		t.Fatalf("far = %+v", far)
	}
	// 跳过与失败的影像不产生输出文件
	if _, err = os.Stat(filepath.Join(outRoot, "far.tif")); !os.IsNotExist(err) {
		t.Fatalf("unexpected output: %v", err)
	}
	bad := byName["nocrs.tif"]
	if bad.Status != StatusFailed || bad.Stage != StageDiscovered || bad.Reason != ErrReprojection.Error() {
		t.Fatalf("nocrs = %+v", bad)
	}
	if _, err = os.Stat(filepath.Join(outRoot, "nocrs.tif")); !os.IsNotExist(err) {
		t.Fatalf("unexpected output: %v", err)
	}
}

// 出图失败不回退已写出的影像，阶段停在written；关闭出图时无plot
func TestPipelineRenderOutcomes(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	prj := epsgWkt(t, UNIVERSAL_SRID)
	aoi := [4]float64{72.6, 72.8, 19.1, 19.3}

	inRoot := t.TempDir()
	writeTestRaster(t, g, filepath.Join(inRoot, "block.tif"), prj, testGT)
	outRoot := filepath.Join(t.TempDir(), "out")
	// 预先用目录占住plot路径，使出图在创建文件时失败
	if err := os.MkdirAll(filepath.Join(outRoot, "block_plot.png"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	p, err := NewPipeline(BatchConfig{InputRoot: inRoot, OutputRoot: outRoot, AoiSpan: aoi, TmpDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 || report.Written != 1 {
		t.Fatalf("report = %+v", report)
	}
	res := report.Results[0]
	if res.Status != StatusWritten || res.Stage != StageWritten || res.Plot != "" {
		t.Fatalf("res = %+v", res)
	}
	if _, err = os.Stat(res.Output); err != nil {
		t.Fatal(err)
	}

	outRoot2 := filepath.Join(t.TempDir(), "out")
	p2, err := NewPipeline(BatchConfig{InputRoot: inRoot, OutputRoot: outRoot2, AoiSpan: aoi, NoRender: true, TmpDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	report2, err := p2.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(report2.Results) != 1 {
		t.Fatalf("report = %+v", report2)
	}
	res2 := report2.Results[0]
	if res2.Status != StatusWritten || res2.Stage != StageDone || res2.Plot != "" {
		t.Fatalf("res = %+v", res2)
	}
	if _, err = os.Stat(filepath.Join(outRoot2, "block_plot.png")); !os.IsNotExist(err) {
		t.Fatalf("unexpected plot: %v", err)
	}
}

func TestBatchConfigValidate(t *testing.T) {
	c := BatchConfig{}
	if err := c.validate(); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("empty config: %v", err)
	}
	c = BatchConfig{InputRoot: filepath.Join(t.TempDir(), "missing"), OutputRoot: t.TempDir()}
	if err := c.validate(); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("missing input dir: %v", err)
	}
	c = BatchConfig{
		InputRoot:  t.TempDir(),
		OutputRoot: t.TempDir(),
		AoiSpan:    [4]float64{2, 1, 3, 4},
	}
	if err := c.validate(); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("malformed span: %v", err)
	}
	c.AoiSpan = [4]float64{1, 2, 3, 4}
	c.OutputRoot = filepath.Join(t.TempDir(), "nested", "out")
	if err := c.validate(); err != nil {
		t.Fatal(err)
	}
}
