package ingest

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/moviegraph/internal/config"
	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/metrics"
)

// ErrNoReadableFiles 所有数据文件都无法读取
var ErrNoReadableFiles = errors.New("没有可读取的数据文件")

// FileKind 数据文件类型
type FileKind string

const (
	FileTitles     FileKind = "titles"
	FileRatings    FileKind = "ratings"
	FileNames      FileKind = "person_names"
	FileRoles      FileKind = "person_roles"
	FileTagCodes   FileKind = "tag_codes"
	FileTagScores  FileKind = "tag_scores"
	FileCrossLinks FileKind = "cross_links"
)

// fileSpec 单个文件的格式与处理方式
type fileSpec struct {
	kind      FileKind
	path      string
	delimiter string
	minFields int
	splitN    int // >0 时最后一列保留剩余内容（标签文本中可能含有分隔符）
	weight    int // worker 数量权重，大文件权重高
	handle    func([]string) outcome
}

// Options 导入参数
type Options struct {
	QueueSize  int
	MaxWorkers int
	NumCPU     int // 0 表示 runtime.NumCPU()
}

// Pipeline 多文件并发导入
//
// 每个文件一个读取 goroutine 和一组解析 worker，通过有界 channel 交接。
// 文件按依赖分为两波：第一波只建立编号映射和电影节点，第二波依赖第一波的映射做关联，
// 两波之间等待第一波所有 goroutine 结束。
type Pipeline struct {
	store *graph.Store
	files config.SourceFiles
	opts  Options
	log   *logger.Logger
}

// NewPipeline 创建导入流水线
func NewPipeline(store *graph.Store, files config.SourceFiles, opts Options, log *logger.Logger) *Pipeline {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 4096
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 32
	}
	if opts.NumCPU <= 0 {
		opts.NumCPU = runtime.NumCPU()
	}
	return &Pipeline{
		store: store,
		files: files,
		opts:  opts,
		log:   log.With("component", "ingest"),
	}
}

// Run 执行一次完整导入
//
// 图中已有数据时直接返回（Report.Skipped=true）。单个文件读取失败只记录日志，
// 全部文件都失败时返回 ErrNoReadableFiles，此时图为空。
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if !p.store.BeginLoad() {
		p.log.Info("[Ingest] 图中已有数据，跳过导入", "state", p.store.State().String(), "movies", p.store.MovieCount())
		return &Report{Skipped: true}, nil
	}

	start := time.Now()
	resolver := NewResolver()
	t := &transformer{store: p.store, resolver: resolver}

	waves := [][]fileSpec{
		{
			{kind: FileTitles, path: p.files.Titles, delimiter: "\t", minFields: 5, weight: 1, handle: t.titles},
			{kind: FileNames, path: p.files.Names, delimiter: "\t", minFields: 2, weight: 1, handle: t.names},
			{kind: FileCrossLinks, path: p.files.CrossLinks, delimiter: ",", minFields: 2, weight: 1, handle: t.crossLinks},
			{kind: FileTagCodes, path: p.files.TagCodes, delimiter: ",", minFields: 2, splitN: 2, weight: 1, handle: t.tagCodes},
		},
		{
			{kind: FileRatings, path: p.files.Ratings, delimiter: "\t", minFields: 2, weight: 2, handle: t.ratings},
			{kind: FileRoles, path: p.files.Roles, delimiter: "\t", minFields: 4, weight: 8, handle: t.roles},
			{kind: FileTagScores, path: p.files.TagScores, delimiter: ",", minFields: 3, weight: 4, handle: t.tagScores},
		},
	}

	report := &Report{}
	for i, wave := range waves {
		waveStart := time.Now()
		files := p.runWave(ctx, wave)
		report.Files = append(report.Files, files...)
		p.log.Info("[Ingest] 阶段完成", "wave", i+1, "files", len(wave), "elapsed", time.Since(waveStart).String())
		if i == 0 {
			p.log.Debug("[Ingest] 编号映射表", "sizes", resolver.Sizes())
		}
	}

	p.store.FinishLoad()
	report.Duration = time.Since(start)
	report.Stats = p.store.Stats()

	metrics.IngestDuration.Observe(report.Duration.Seconds())
	metrics.GraphEntities.WithLabelValues("movies").Set(float64(report.Stats.Movies))
	metrics.GraphEntities.WithLabelValues("people").Set(float64(report.Stats.People))
	metrics.GraphEntities.WithLabelValues("tags").Set(float64(report.Stats.Tags))

	p.log.Info("[Ingest] 导入完成",
		"elapsed", report.Duration.String(),
		"movies", report.Stats.Movies,
		"people", report.Stats.People,
		"tags", report.Stats.Tags,
	)

	if report.ReadableFiles() == 0 {
		return report, ErrNoReadableFiles
	}
	return report, nil
}

// runWave 同一波的文件全部并发执行，等待全部结束后返回
func (p *Pipeline) runWave(ctx context.Context, specs []fileSpec) []FileReport {
	reports := make([]FileReport, len(specs))
	var g errgroup.Group
	for i := range specs {
		g.Go(func() error {
			reports[i] = p.runFile(ctx, specs[i])
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// runFile 一个读取 goroutine + 一组 worker，等待全部结束
func (p *Pipeline) runFile(ctx context.Context, spec fileSpec) FileReport {
	start := time.Now()
	log := p.log.With("file", string(spec.kind), "path", spec.path)
	stats := &fileStats{}
	lines := make(chan string, p.opts.QueueSize)
	workers := p.workerCount(spec.weight)

	var g errgroup.Group
	g.Go(func() error {
		return readLines(ctx, spec.path, lines, func() { stats.lines.Add(1) })
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for line := range lines {
				// 取消后只排空队列，不再写入
				if ctx.Err() != nil {
					continue
				}
				o := p.process(spec, line)
				stats.record(o)
				if o == outcomeMalformed {
					log.Debug("[Ingest] 跳过格式错误的记录", "line", line)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	r := stats.report(spec.kind, spec.path)
	r.Workers = workers
	r.Duration = time.Since(start)
	r.Err = err

	metrics.IngestLines.WithLabelValues(string(spec.kind)).Add(float64(r.Lines))
	for o, n := range map[outcome]int64{
		outcomeAccepted:   r.Accepted,
		outcomeFiltered:   r.Filtered,
		outcomeDuplicate:  r.Duplicates,
		outcomeMalformed:  r.Malformed,
		outcomeUnresolved: r.Unresolved,
	} {
		metrics.IngestRecords.WithLabelValues(string(spec.kind), o.String()).Add(float64(n))
	}

	if err != nil {
		metrics.IngestFileErrors.WithLabelValues(string(spec.kind)).Inc()
		log.Error("[Ingest] 文件读取失败，跳过该文件", "error", err, "lines", r.Lines)
		return r
	}
	log.Info("[Ingest] 文件处理完成",
		"workers", workers,
		"lines", r.Lines,
		"accepted", r.Accepted,
		"filtered", r.Filtered,
		"duplicates", r.Duplicates,
		"malformed", r.Malformed,
		"unresolved", r.Unresolved,
		"elapsed", r.Duration.String(),
	)
	return r
}

func (p *Pipeline) process(spec fileSpec, line string) outcome {
	if line == "" {
		return outcomeMalformed
	}
	n := -1
	if spec.splitN > 0 {
		n = spec.splitN
	}
	fields := strings.SplitN(line, spec.delimiter, n)
	if len(fields) < spec.minFields {
		return outcomeMalformed
	}
	return spec.handle(fields)
}

// workerCount 按 CPU 数和文件权重计算 worker 数量
func (p *Pipeline) workerCount(weight int) int {
	n := p.opts.NumCPU * weight / 4
	if n < 1 {
		n = 1
	}
	if n > p.opts.MaxWorkers {
		n = p.opts.MaxWorkers
	}
	return n
}

type fileStats struct {
	lines      atomic.Int64
	accepted   atomic.Int64
	filtered   atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
	unresolved atomic.Int64
}

func (s *fileStats) record(o outcome) {
	switch o {
	case outcomeAccepted:
		s.accepted.Add(1)
	case outcomeFiltered:
		s.filtered.Add(1)
	case outcomeDuplicate:
		s.duplicates.Add(1)
	case outcomeMalformed:
		s.malformed.Add(1)
	case outcomeUnresolved:
		s.unresolved.Add(1)
	}
}

func (s *fileStats) report(kind FileKind, path string) FileReport {
	return FileReport{
		Kind:       kind,
		Path:       path,
		Lines:      s.lines.Load(),
		Accepted:   s.accepted.Load(),
		Filtered:   s.filtered.Load(),
		Duplicates: s.duplicates.Load(),
		Malformed:  s.malformed.Load(),
		Unresolved: s.unresolved.Load(),
	}
}
