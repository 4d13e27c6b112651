package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/moviegraph/internal/model"
)

const defaultBatchSize = 1000

// CatalogRepository 电影目录的批量写入
type CatalogRepository struct {
	db        *gorm.DB
	batchSize int
	retry     *Retrier
}

func NewCatalogRepository(db *gorm.DB, batchSize int, retry *Retrier) *CatalogRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &CatalogRepository{db: db, batchSize: batchSize, retry: retry}
}

// Reset 删除并重建全部表，包括已持久化的相似度
func (r *CatalogRepository) Reset(ctx context.Context) error {
	return r.retry.Do(ctx, "reset", func() error {
		m := r.db.WithContext(ctx).Migrator()
		for i := len(catalogTables) - 1; i >= 0; i-- {
			if err := m.DropTable(catalogTables[i]); err != nil {
				return fmt.Errorf("删除表失败: %w", err)
			}
		}
		return Migrate(r.db.WithContext(ctx))
	})
}

func (r *CatalogRepository) InsertMovies(ctx context.Context, rows []model.MovieEntry) error {
	return insertBatches(ctx, r, "insert_movies", rows)
}

func (r *CatalogRepository) InsertActors(ctx context.Context, rows []model.ActorEntry) error {
	return insertBatches(ctx, r, "insert_actors", rows)
}

func (r *CatalogRepository) InsertDirectors(ctx context.Context, rows []model.DirectorEntry) error {
	return insertBatches(ctx, r, "insert_directors", rows)
}

func (r *CatalogRepository) InsertTags(ctx context.Context, rows []model.TagEntry) error {
	return insertBatches(ctx, r, "insert_tags", rows)
}

func (r *CatalogRepository) InsertMovieActors(ctx context.Context, rows []model.MovieActor) error {
	return insertBatches(ctx, r, "insert_movie_actors", rows)
}

func (r *CatalogRepository) InsertMovieDirectors(ctx context.Context, rows []model.MovieDirector) error {
	return insertBatches(ctx, r, "insert_movie_directors", rows)
}

func (r *CatalogRepository) InsertMovieTags(ctx context.Context, rows []model.MovieTag) error {
	return insertBatches(ctx, r, "insert_movie_tags", rows)
}

// insertBatches 逐批写入，每批单独重试；主键冲突忽略，重试不会产生重复行
func insertBatches[T any](ctx context.Context, r *CatalogRepository, op string, rows []T) error {
	for start := 0; start < len(rows); start += r.batchSize {
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		err := r.retry.Do(ctx, op, func() error {
			return r.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&batch).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}
