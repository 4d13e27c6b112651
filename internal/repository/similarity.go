package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/moviegraph/internal/model"
)

// SimilarityRepository 相似度边的读写
type SimilarityRepository struct {
	db    *gorm.DB
	retry *Retrier
}

func NewSimilarityRepository(db *gorm.DB, retry *Retrier) *SimilarityRepository {
	return &SimilarityRepository{db: db, retry: retry}
}

// FindBySource 按分数降序、目标标题升序
func (r *SimilarityRepository) FindBySource(ctx context.Context, source string) ([]model.SimilarityEdge, error) {
	var rows []model.MovieSimilarity
	err := r.db.WithContext(ctx).
		Where("source_title = ?", source).
		Order("score DESC").
		Order("target_title ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	edges := make([]model.SimilarityEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, model.SimilarityEdge{
			SourceTitle: row.SourceTitle,
			TargetTitle: row.TargetTitle,
			Score:       row.Score,
		})
	}
	return edges, nil
}

// SaveEdges 以 (source_title, target_title) 为键，已存在时更新分数
func (r *SimilarityRepository) SaveEdges(ctx context.Context, edges []model.SimilarityEdge) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([]model.MovieSimilarity, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, model.MovieSimilarity{
			SourceTitle: e.SourceTitle,
			TargetTitle: e.TargetTitle,
			Score:       e.Score,
		})
	}

	return r.retry.Do(ctx, "save_edges", func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_title"}, {Name: "target_title"}},
			DoUpdates: clause.AssignmentColumns([]string{"score"}),
		}).Create(&rows).Error
	})
}
