package model

// MaxTitleLength 标题最大长度（按字符计），超出的记录在导入时丢弃
const MaxTitleLength = 800

// Movie 电影快照（只读副本，不持有图结构的锁）
type Movie struct {
	Title      string   `json:"title"`
	Rating     float64  `json:"rating"`
	Rated      bool     `json:"rated"`
	Actors     []string `json:"actors"`
	Production []string `json:"production"` // 导演、制片人
	Tags       []string `json:"tags"`
}

// SimilarMovie 相似电影查询结果
type SimilarMovie struct {
	Movie Movie   `json:"movie"`
	Score float64 `json:"score"`
}

// Equal 只比较目标标题与分数
func (s SimilarMovie) Equal(other SimilarMovie) bool {
	return s.Movie.Title == other.Movie.Title && s.Score == other.Score
}

// SimilarityEdge 有向相似度边，source -> target
type SimilarityEdge struct {
	SourceTitle string  `json:"source_title"`
	TargetTitle string  `json:"target_title"`
	Score       float64 `json:"score"`
}

// Key 边的唯一键
func (e SimilarityEdge) Key() [2]string {
	return [2]string{e.SourceTitle, e.TargetTitle}
}

// Stats 图中各类实体数量
type Stats struct {
	Movies int `json:"movies"`
	People int `json:"people"`
	Tags   int `json:"tags"`
}
