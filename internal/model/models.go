package model

// 以下为数据库表结构，实体以名称作为主键

// MovieEntry 电影表
type MovieEntry struct {
	Name   string  `json:"name" gorm:"primaryKey;size:800"`
	Rating float64 `json:"rating" gorm:"index"`
}

func (MovieEntry) TableName() string { return "movies" }

// ActorEntry 演员表
type ActorEntry struct {
	Name string `json:"name" gorm:"primaryKey;size:401"`
}

func (ActorEntry) TableName() string { return "actors" }

// DirectorEntry 导演/制片人表
type DirectorEntry struct {
	Name string `json:"name" gorm:"primaryKey;size:402"`
}

func (DirectorEntry) TableName() string { return "directors" }

// TagEntry 标签表
type TagEntry struct {
	Name string `json:"name" gorm:"primaryKey;size:201"`
}

func (TagEntry) TableName() string { return "tags" }

// MovieActor 电影-演员关联
type MovieActor struct {
	MovieName string `gorm:"primaryKey;size:800"`
	ActorName string `gorm:"primaryKey;size:401;index"`
}

func (MovieActor) TableName() string { return "movie_actors" }

// MovieDirector 电影-导演关联
type MovieDirector struct {
	MovieName    string `gorm:"primaryKey;size:800"`
	DirectorName string `gorm:"primaryKey;size:402;index"`
}

func (MovieDirector) TableName() string { return "movie_directors" }

// MovieTag 电影-标签关联
type MovieTag struct {
	MovieName string `gorm:"primaryKey;size:800"`
	TagName   string `gorm:"primaryKey;size:201;index"`
}

func (MovieTag) TableName() string { return "movie_tags" }

// MovieSimilarity 相似度边表，按 source_title 查询
type MovieSimilarity struct {
	SourceTitle string  `gorm:"primaryKey;size:800"`
	TargetTitle string  `gorm:"primaryKey;size:800"`
	Score       float64 `gorm:"not null"`
}

func (MovieSimilarity) TableName() string { return "movie_similarities" }

// MovieDetail 数据库中的电影详情
type MovieDetail struct {
	Name      string   `json:"name"`
	Rating    float64  `json:"rating"`
	Actors    []string `json:"actors"`
	Directors []string `json:"directors"`
	Tags      []string `json:"tags"`
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPagedResult 计算总页数
func NewPagedResult[T any](items []T, total, page, size int) *PagedResult[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}
	return &PagedResult[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: page,
		PageSize:   size,
		TotalPages: pages,
	}
}

// SearchKind 目录搜索的匹配对象
type SearchKind string

const (
	SearchByMovie  SearchKind = "movie"
	SearchByPerson SearchKind = "person"
	SearchByTag    SearchKind = "tag"
)

// ParseSearchKind 空字符串按电影名搜索
func ParseSearchKind(s string) (SearchKind, bool) {
	switch SearchKind(s) {
	case "", SearchByMovie:
		return SearchByMovie, true
	case SearchByPerson, SearchByTag:
		return SearchKind(s), true
	}
	return "", false
}
