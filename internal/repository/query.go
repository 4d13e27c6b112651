package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/user/moviegraph/internal/model"
)

// QueryRepository 基于数据库的目录查询
type QueryRepository struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// 每个子查询返回 (name, match_score)，前缀匹配为 2，包含匹配为 1
const (
	movieMatchSQL = `SELECT name, CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 2 ELSE 1 END AS match_score
		FROM movies WHERE LOWER(name) LIKE ? ESCAPE '\'`

	personMatchSQL = `SELECT p.movie_name AS name, MAX(CASE WHEN LOWER(p.person) LIKE ? ESCAPE '\' THEN 2 ELSE 1 END) AS match_score
		FROM (
			SELECT movie_name, actor_name AS person FROM movie_actors
			UNION ALL
			SELECT movie_name, director_name AS person FROM movie_directors
		) p
		WHERE LOWER(p.person) LIKE ? ESCAPE '\'
		GROUP BY p.movie_name`

	tagMatchSQL = `SELECT movie_name AS name, MAX(CASE WHEN LOWER(tag_name) LIKE ? ESCAPE '\' THEN 2 ELSE 1 END) AS match_score
		FROM movie_tags WHERE LOWER(tag_name) LIKE ? ESCAPE '\'
		GROUP BY movie_name`
)

// SearchMovies 不区分大小写的子串搜索，前缀匹配排在前面，同分按名称排序
func (r *QueryRepository) SearchMovies(ctx context.Context, query string, kind model.SearchKind, page, size int) (*model.PagedResult[model.MovieDetail], error) {
	var sub string
	switch kind {
	case model.SearchByMovie:
		sub = movieMatchSQL
	case model.SearchByPerson:
		sub = personMatchSQL
	case model.SearchByTag:
		sub = tagMatchSQL
	default:
		return nil, fmt.Errorf("未知的搜索类型: %s", kind)
	}

	q := escapeLike(strings.ToLower(strings.TrimSpace(query)))
	prefix, contains := q+"%", "%"+q+"%"
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM ("+sub+") s", prefix, contains).Scan(&total).Error; err != nil {
		return nil, err
	}

	var names []string
	err := db.Raw("SELECT s.name FROM ("+sub+") s ORDER BY s.match_score DESC, s.name ASC LIMIT ? OFFSET ?",
		prefix, contains, size, (page-1)*size).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}

	items, err := r.details(ctx, names)
	if err != nil {
		return nil, err
	}
	return model.NewPagedResult(items, int(total), page, size), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '\' 使用
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// TopRated 按评分降序，同分按名称
func (r *QueryRepository) TopRated(ctx context.Context, page, size int) (*model.PagedResult[model.MovieDetail], error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.MovieEntry{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var names []string
	err := db.Model(&model.MovieEntry{}).
		Order("rating DESC").
		Order("name ASC").
		Limit(size).
		Offset((page-1)*size).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	items, err := r.details(ctx, names)
	if err != nil {
		return nil, err
	}
	return model.NewPagedResult(items, int(total), page, size), nil
}

// FindMovie 精确匹配名称，不存在时返回 nil, nil
func (r *QueryRepository) FindMovie(ctx context.Context, name string) (*model.MovieDetail, error) {
	items, err := r.details(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// details 加载电影及其关联，保持 names 的顺序
func (r *QueryRepository) details(ctx context.Context, names []string) ([]model.MovieDetail, error) {
	if len(names) == 0 {
		return []model.MovieDetail{}, nil
	}
	db := r.db.WithContext(ctx)

	var movies []model.MovieEntry
	if err := db.Where("name IN ?", names).Find(&movies).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]*model.MovieDetail, len(movies))
	for _, m := range movies {
		byName[m.Name] = &model.MovieDetail{
			Name:      m.Name,
			Rating:    m.Rating,
			Actors:    []string{},
			Directors: []string{},
			Tags:      []string{},
		}
	}

	var actors []model.MovieActor
	if err := db.Where("movie_name IN ?", names).Order("actor_name").Find(&actors).Error; err != nil {
		return nil, err
	}
	for _, a := range actors {
		if d, ok := byName[a.MovieName]; ok {
			d.Actors = append(d.Actors, a.ActorName)
		}
	}

	var directors []model.MovieDirector
	if err := db.Where("movie_name IN ?", names).Order("director_name").Find(&directors).Error; err != nil {
		return nil, err
	}
	for _, dr := range directors {
		if d, ok := byName[dr.MovieName]; ok {
			d.Directors = append(d.Directors, dr.DirectorName)
		}
	}

	var tags []model.MovieTag
	if err := db.Where("movie_name IN ?", names).Order("tag_name").Find(&tags).Error; err != nil {
		return nil, err
	}
	for _, t := range tags {
		if d, ok := byName[t.MovieName]; ok {
			d.Tags = append(d.Tags, t.TagName)
		}
	}

	out := make([]model.MovieDetail, 0, len(names))
	for _, n := range names {
		if d, ok := byName[n]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}
