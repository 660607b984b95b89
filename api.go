package aoilib

import (
	"encoding/json"
	"time"
)

type AnyJson = json.RawMessage

type GdalGeo = []byte

// 单文件处理所处阶段
type ProcessStage string

const (
	StageDiscovered    ProcessStage = "discovered"
	StageReprojected   ProcessStage = "reprojected"
	StageClipped       ProcessStage = "clipped"
	StageNormalized    ProcessStage = "normalized"
	StageWritten       ProcessStage = "written"
	StageRendered      ProcessStage = "rendered"
	StageRenderSkipped ProcessStage = "render_skipped"
	StageDone          ProcessStage = "done"
)

// 单文件处理结果标签
type FileStatus string

const (
	StatusWritten FileStatus = "written"
	StatusSkipped FileStatus = "skipped"
	StatusFailed  FileStatus = "failed"
)

// 单文件处理结果
type FileResult struct {
	Input  string       `json:"input"`
	Output string       `json:"output,omitempty"`
	Plot   string       `json:"plot,omitempty"`
	Status FileStatus   `json:"status"`
	Stage  ProcessStage `json:"stage"`
	Reason string       `json:"reason,omitempty"`
}

// 批处理汇总报告
type BatchReport struct {
	Results []FileResult  `json:"results"`
	Written int           `json:"written"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed"`
}

// 边界矢量加载结果
type BoundaryInfo struct {
	Shp    string   // 实际加载的shp路径
	Geom   GdalGeo  // 合并后的WKB（srid=4326）
	Labels []string // 属性标签（UTF-8）
}
