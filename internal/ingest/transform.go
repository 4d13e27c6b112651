package ingest

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/user/moviegraph/internal/graph"
	"github.com/user/moviegraph/internal/model"
)

// RelevanceThreshold 标签相关度阈值，严格大于才保留
const RelevanceThreshold = 0.5

// 标题文件地区/语言白名单
var (
	allowedRegions   = map[string]bool{"US": true, "GB": true, "RU": true, "AU": true, "EU": true}
	allowedLanguages = map[string]bool{"en": true, "ru": true}
)

// outcome 单条记录的处理结果
type outcome int

const (
	outcomeAccepted   outcome = iota
	outcomeFiltered           // 未通过过滤条件
	outcomeDuplicate          // 先到先得，后来者被忽略
	outcomeMalformed          // 字段缺失或格式错误
	outcomeUnresolved         // 关联编号尚未出现在映射表中
)

func (o outcome) String() string {
	switch o {
	case outcomeAccepted:
		return "accepted"
	case outcomeFiltered:
		return "filtered"
	case outcomeDuplicate:
		return "duplicate"
	case outcomeMalformed:
		return "malformed"
	case outcomeUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// transformer 各文件的字段解析与写入逻辑
type transformer struct {
	store    *graph.Store
	resolver *Resolver
}

// titles 0=编号 2=标题 3=地区 4=语言
func (t *transformer) titles(f []string) outcome {
	rawID, title, region, language := f[0], f[2], f[3], f[4]
	if rawID == "" || title == "" {
		return outcomeMalformed
	}
	if !allowedRegions[region] && !allowedLanguages[language] {
		return outcomeFiltered
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return outcomeFiltered
	}
	if _, ok := t.resolver.MovieTitle(rawID); ok {
		return outcomeDuplicate
	}
	if !t.resolver.BindMovie(rawID, title) {
		return outcomeDuplicate
	}
	// 标题已被其他编号占用时撤销绑定，保证编号只指向由它创建的电影
	if _, created := t.store.AddMovie(title); !created {
		t.resolver.UnbindMovie(rawID, title)
		return outcomeDuplicate
	}
	return outcomeAccepted
}

// ratings 0=编号 1=评分
func (t *transformer) ratings(f []string) outcome {
	rating, err := strconv.ParseFloat(strings.TrimSpace(f[1]), 64)
	if err != nil {
		return outcomeMalformed
	}
	movie, ok := t.movieByRawID(f[0])
	if !ok {
		return outcomeUnresolved
	}
	movie.SetRating(rating)
	return outcomeAccepted
}

// names 0=人物编号 1=姓名
func (t *transformer) names(f []string) outcome {
	rawID, name := f[0], f[1]
	if rawID == "" || name == "" {
		return outcomeMalformed
	}
	if !t.resolver.BindPerson(rawID, name) {
		return outcomeDuplicate
	}
	return outcomeAccepted
}

// roles 0=电影编号 2=人物编号 3=类别
func (t *transformer) roles(f []string) outcome {
	var link func(*graph.Movie, string)
	switch f[3] {
	case "actor", "actress":
		link = t.store.LinkActor
	case "producer", "director":
		link = t.store.LinkProduction
	default:
		return outcomeFiltered
	}

	movie, ok := t.movieByRawID(f[0])
	if !ok {
		return outcomeUnresolved
	}
	name, ok := t.resolver.PersonName(f[2])
	if !ok {
		return outcomeUnresolved
	}
	link(movie, name)
	return outcomeAccepted
}

// tagCodes 0=标签编号 1=标签文本
func (t *transformer) tagCodes(f []string) outcome {
	rawID, text := f[0], strings.TrimSpace(f[1])
	if rawID == "" || text == "" {
		return outcomeMalformed
	}
	if !t.resolver.BindTag(rawID, text) {
		return outcomeDuplicate
	}
	return outcomeAccepted
}

// crossLinks 0=外部编号 1=主编号后缀
func (t *transformer) crossLinks(f []string) outcome {
	secondaryID, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		return outcomeMalformed
	}
	suffix := strings.TrimSpace(f[1])
	if suffix == "" {
		return outcomeMalformed
	}
	if !t.resolver.BindLink(secondaryID, PrimaryIDPrefix+suffix) {
		return outcomeDuplicate
	}
	return outcomeAccepted
}

// tagScores 0=外部编号 1=标签编号 2=相关度
func (t *transformer) tagScores(f []string) outcome {
	relevance, err := strconv.ParseFloat(strings.TrimSpace(f[2]), 64)
	if err != nil {
		return outcomeMalformed
	}
	if relevance <= RelevanceThreshold {
		return outcomeFiltered
	}
	secondaryID, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		return outcomeMalformed
	}

	primaryID, ok := t.resolver.PrimaryID(secondaryID)
	if !ok {
		return outcomeUnresolved
	}
	movie, ok := t.movieByRawID(primaryID)
	if !ok {
		return outcomeUnresolved
	}
	tag, ok := t.resolver.TagText(f[1])
	if !ok {
		return outcomeUnresolved
	}
	t.store.LinkTag(movie, tag)
	return outcomeAccepted
}

func (t *transformer) movieByRawID(rawID string) (*graph.Movie, bool) {
	title, ok := t.resolver.MovieTitle(rawID)
	if !ok {
		return nil, false
	}
	return t.store.Movie(title)
}
