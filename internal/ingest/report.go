package ingest

import (
	"time"

	"github.com/user/moviegraph/internal/model"
)

// FileReport 单个文件的处理统计
type FileReport struct {
	Kind       FileKind      `json:"kind"`
	Path       string        `json:"path"`
	Workers    int           `json:"workers"`
	Lines      int64         `json:"lines"`
	Accepted   int64         `json:"accepted"`
	Filtered   int64         `json:"filtered"`
	Duplicates int64         `json:"duplicates"`
	Malformed  int64         `json:"malformed"`
	Unresolved int64         `json:"unresolved"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// Report 一次导入的整体统计
type Report struct {
	Skipped  bool          `json:"skipped"` // 图中已有数据，未执行导入
	Files    []FileReport  `json:"files"`
	Stats    model.Stats   `json:"stats"`
	Duration time.Duration `json:"duration"`
}

// File 按类型查找文件统计
func (r *Report) File(kind FileKind) (FileReport, bool) {
	for _, f := range r.Files {
		if f.Kind == kind {
			return f, true
		}
	}
	return FileReport{}, false
}

// ReadableFiles 完整读取的文件数
func (r *Report) ReadableFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// FailedFiles 读取失败的文件
func (r *Report) FailedFiles() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}
