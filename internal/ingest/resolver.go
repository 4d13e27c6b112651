package ingest

import (
	"strconv"

	"github.com/user/moviegraph/internal/utils"
)

// PrimaryIDPrefix 主目录编号前缀，主编号 = 前缀 + 链接文件中的后缀
const PrimaryIDPrefix = "tt"

// Resolver 导入期间使用的编号映射表，只在一次导入内有效
//
// 所有映射均为先到先得：同一个键第一次成功写入后，后续写入被忽略。
type Resolver struct {
	movieTitles *utils.ShardMap[string] // 原始电影编号 -> 标题
	personNames *utils.ShardMap[string] // 原始人物编号 -> 姓名
	tagTexts    *utils.ShardMap[string] // 原始标签编号 -> 标签文本
	links       *utils.ShardMap[string] // 外部目录编号 -> 主编号
}

// NewResolver 创建空映射表
func NewResolver() *Resolver {
	return &Resolver{
		movieTitles: utils.NewShardMap[string](utils.DefaultShards),
		personNames: utils.NewShardMap[string](utils.DefaultShards),
		tagTexts:    utils.NewShardMap[string](utils.DefaultShards),
		links:       utils.NewShardMap[string](utils.DefaultShards),
	}
}

// BindMovie 绑定电影编号，编号已被占用时返回 false
func (r *Resolver) BindMovie(rawID, title string) bool {
	_, loaded := r.movieTitles.LoadOrStore(rawID, title)
	return !loaded
}

// UnbindMovie 撤销绑定，仅当编号仍指向该标题时生效
func (r *Resolver) UnbindMovie(rawID, title string) {
	r.movieTitles.DeleteIf(rawID, func(v string) bool { return v == title })
}

func (r *Resolver) MovieTitle(rawID string) (string, bool) {
	return r.movieTitles.Get(rawID)
}

func (r *Resolver) BindPerson(rawID, name string) bool {
	_, loaded := r.personNames.LoadOrStore(rawID, name)
	return !loaded
}

func (r *Resolver) PersonName(rawID string) (string, bool) {
	return r.personNames.Get(rawID)
}

func (r *Resolver) BindTag(rawID, text string) bool {
	_, loaded := r.tagTexts.LoadOrStore(rawID, text)
	return !loaded
}

func (r *Resolver) TagText(rawID string) (string, bool) {
	return r.tagTexts.Get(rawID)
}

// BindLink 外部编号按整数归一化（"007" 与 "7" 视为同一编号）
func (r *Resolver) BindLink(secondaryID int, primaryID string) bool {
	_, loaded := r.links.LoadOrStore(strconv.Itoa(secondaryID), primaryID)
	return !loaded
}

func (r *Resolver) PrimaryID(secondaryID int) (string, bool) {
	return r.links.Get(strconv.Itoa(secondaryID))
}

// Sizes 各映射表大小，用于日志
func (r *Resolver) Sizes() map[string]int {
	return map[string]int{
		"movie_ids":  r.movieTitles.Len(),
		"person_ids": r.personNames.Len(),
		"tag_ids":    r.tagTexts.Len(),
		"links":      r.links.Len(),
	}
}
