package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/user/moviegraph/internal/logger"
	"github.com/user/moviegraph/internal/model"
)

// InitDB 初始化数据库连接，底层驱动使用 lib/pq
func InitDB(databaseURL string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}))
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open 使用给定方言打开 gorm，测试中传入 sqlite
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 gorm 失败: %w", err)
	}
	return db, nil
}

// catalogTables 建表顺序，删除时逆序
var catalogTables = []interface{}{
	&model.MovieEntry{},
	&model.ActorEntry{},
	&model.DirectorEntry{},
	&model.TagEntry{},
	&model.MovieActor{},
	&model.MovieDirector{},
	&model.MovieTag{},
	&model.MovieSimilarity{},
}

// Migrate 创建缺失的表和索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(catalogTables...); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// SinkOptions 批量写入与重试参数
type SinkOptions struct {
	BatchSize int
	Retry     RetryPolicy
}

// Repositories 仓库集合
type Repositories struct {
	DB         *gorm.DB
	Catalog    *CatalogRepository
	Similarity *SimilarityRepository
	Query      *QueryRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB, opts SinkOptions, log *logger.Logger) *Repositories {
	retrier := NewRetrier(opts.Retry, log)
	return &Repositories{
		DB:         db,
		Catalog:    NewCatalogRepository(db, opts.BatchSize, retrier),
		Similarity: NewSimilarityRepository(db, retrier),
		Query:      NewQueryRepository(db),
	}
}
