package aoilib

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wgdzlh/aoilib/log"
	"github.com/wgdzlh/aoilib/utils"

	"go.uber.org/zap"
)

// 批处理管线：遍历输入目录下全部影像，逐一剪切、规整、落盘并出图，
// 单文件失败不中断批次
type Pipeline struct {
	cfg    BatchConfig
	tb     *GdalToolbox
	logTag string
}

func NewPipeline(cfg BatchConfig) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	tb := NewGdalToolbox(cfg.TmpDir)
	if err := tb.CheckWkt(cfg.AoiWkt, cfg.AoiSrid); err != nil {
		log.Error("Pipeline:invalid aoi wkt in config", zap.Error(err))
		return nil, ErrBadConfig
	}
	return &Pipeline{
		cfg:    cfg,
		tb:     tb,
		logTag: "Pipeline:",
	}, nil
}

// 执行批处理，返回全部单文件结果及总计
func (p *Pipeline) Run() (*BatchReport, error) {
	start := time.Now()
	var results []FileResult
	err := filepath.WalkDir(p.cfg.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Error(p.logTag+"walk input failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() || !p.isRaster(path) {
			return nil
		}
		results = append(results, p.processFile(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	report := summarize(results, time.Since(start))
	log.Info(p.logTag+"batch done",
		zap.Int("total", len(report.Results)),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed),
		zap.String("output", p.cfg.OutputRoot))
	return report, nil
}

func (p *Pipeline) isRaster(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range p.cfg.RasterExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// 推进单文件处理阶段并留痕
func (p *Pipeline) advance(res *FileResult, stage ProcessStage) {
	res.Stage = stage
	log.Debug(p.logTag+"stage reached", zap.String("tif", res.Input), zap.String("stage", string(stage)))
}

// 单文件全流程，任何失败只记入结果，资源在各退出路径上都释放
func (p *Pipeline) processFile(path string) (res FileResult) {
	res = FileResult{Input: path, Status: StatusFailed, Stage: StageDiscovered}
	rel, err := filepath.Rel(p.cfg.InputRoot, path)
	if err != nil {
		res.Reason = err.Error()
		return
	}
	log.Info(p.logTag+"processing raster", zap.String("tif", rel))
	out, err := mirrorPath(p.cfg.InputRoot, p.cfg.OutputRoot, path)
	if err != nil {
		res.Reason = err.Error()
		return
	}
	if err = os.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
		log.Error(p.logTag+"create output dir failed", zap.Error(err))
		res.Reason = err.Error()
		return
	}
	ds, err := p.tb.openRaster(path)
	if err != nil {
		res.Reason = err.Error()
		return
	}
	defer ds.Close()
	meta, err := p.tb.readMeta(ds)
	if err != nil {
		res.Reason = err.Error()
		return
	}
	if meta.Projection == "" {
		log.Error(p.logTag+"tif has no crs", zap.String("tif", rel))
		res.Reason = ErrReprojection.Error()
		return
	}
	aoi, err := p.tb.reprojectAoi(p.cfg.AoiWkt, p.cfg.AoiSrid, ds)
	if err != nil {
		res.Reason = err.Error()
		return
	}
	defer aoi.Close()
	p.advance(&res, StageReprojected)

	clip, err := p.tb.clipToGeometry(ds, aoi, meta)
	if err != nil {
		if errors.Is(err, ErrNoOverlap) {
			log.Warn(p.logTag+"aoi does not overlap raster", zap.String("tif", rel))
			res.Status = StatusSkipped
		}
		res.Reason = err.Error()
		return
	}
	p.advance(&res, StageClipped)
	for _, band := range clip.Data {
		NormalizeValues(band, meta.NoData)
	}
	p.advance(&res, StageNormalized)

	outMeta := syncMeta(meta, clip)
	for _, band := range clip.Data {
		RestoreNodata(band, meta.NoData)
	}
	if err = p.tb.writeRaster(out, outMeta, clip.Data); err != nil {
		res.Reason = ErrClipWrite.Error()
		return
	}
	p.advance(&res, StageWritten)
	res.Output = out
	res.Status = StatusWritten
	log.Info(p.logTag+"raster written", zap.String("out", out))

	if p.cfg.NoRender {
		p.advance(&res, StageRenderSkipped)
	} else {
		// 渲染基于哨兵形态的数据，落盘后重新规整
		for _, band := range clip.Data {
			NormalizeValues(band, meta.NoData)
		}
		plot := filepath.Join(filepath.Dir(out), utils.GetFilenameWithoutExt(out)+PLOT_SUFFIX)
		rendered, rerr := p.tb.RenderPreview(clip, rel, plot)
		if rerr != nil {
			// 出图失败不影响已写出的影像，阶段停在written
			log.Error(p.logTag+"render failed", zap.String("tif", rel), zap.Error(rerr))
			return
		}
		if rendered {
			res.Plot = plot
			p.advance(&res, StageRendered)
			log.Info(p.logTag+"plot written", zap.String("plot", plot))
		} else {
			p.advance(&res, StageRenderSkipped)
		}
	}
	p.advance(&res, StageDone)
	return
}

// 输出路径镜像输入目录结构
func mirrorPath(inRoot, outRoot, path string) (string, error) {
	rel, err := filepath.Rel(inRoot, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(outRoot, rel), nil
}

func summarize(results []FileResult, elapsed time.Duration) *BatchReport {
	report := &BatchReport{
		Results: results,
		Elapsed: elapsed,
	}
	for _, r := range results {
		switch r.Status {
		case StatusWritten:
			report.Written++
		case StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report
}
