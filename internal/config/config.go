package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config 应用配置
type Config struct {
	Env         string `validate:"oneof=development production test"`
	DatabaseURL string `validate:"required"`
	Port        string `validate:"required,numeric"`

	// 数据文件
	DataDir string      `validate:"required"`
	Files   SourceFiles `validate:"required"`

	// 导入
	IngestQueueSize  int  `validate:"min=1"`
	IngestMaxWorkers int  `validate:"min=1"`
	ExportOnLoad     bool // 加载完成后写入数据库

	// 相似度
	SimilarTopK      int `validate:"min=1,max=100"`
	SimilarCacheSize int `validate:"min=1"`

	// 持久化
	SinkBatchSize   int           `validate:"min=1"`
	SinkMaxAttempts int           `validate:"min=1,max=20"`
	SinkMinBackoff  time.Duration `validate:"gt=0"`
	SinkMaxBackoff  time.Duration `validate:"gtefield=SinkMinBackoff"`

	CatalogCacheTTL time.Duration `validate:"gt=0"`

	// 管理接口的 JWT 密钥，为空时不注册管理接口
	AdminSecret string `validate:"omitempty,min=16"`
}

// SourceFiles 各数据文件的完整路径
type SourceFiles struct {
	Titles     string `validate:"required"`
	Ratings    string `validate:"required"`
	Names      string `validate:"required"`
	Roles      string `validate:"required"`
	TagCodes   string `validate:"required"`
	TagScores  string `validate:"required"`
	CrossLinks string `validate:"required"`
}

// Load 加载配置
func Load() (*Config, error) {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "moviegraph")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	dataDir := getEnv("DATA_DIR", "./ml-latest")

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", dbURL),
		Port:        getEnv("PORT", "5005"),
		DataDir:     dataDir,
		Files: SourceFiles{
			Titles:     dataFile(dataDir, "TITLES_FILE", "MovieCodes_IMDB.tsv"),
			Ratings:    dataFile(dataDir, "RATINGS_FILE", "Ratings_IMDB.tsv"),
			Names:      dataFile(dataDir, "NAMES_FILE", "ActorsDirectorsNames_IMDB.txt"),
			Roles:      dataFile(dataDir, "ROLES_FILE", "ActorsDirectorsCodes_IMDB.tsv"),
			TagCodes:   dataFile(dataDir, "TAG_CODES_FILE", "TagCodes_MovieLens.csv"),
			TagScores:  dataFile(dataDir, "TAG_SCORES_FILE", "TagScores_MovieLens.csv"),
			CrossLinks: dataFile(dataDir, "LINKS_FILE", "links_IMDB_MovieLens.csv"),
		},
		IngestQueueSize:  getEnvInt("INGEST_QUEUE_SIZE", 4096),
		IngestMaxWorkers: getEnvInt("INGEST_MAX_WORKERS", 32),
		ExportOnLoad:     getEnvBool("EXPORT_ON_LOAD", false),
		SimilarTopK:      getEnvInt("SIMILAR_TOP_K", 10),
		SimilarCacheSize: getEnvInt("SIMILAR_CACHE_SIZE", 1000),
		SinkBatchSize:    getEnvInt("SINK_BATCH_SIZE", 1000),
		SinkMaxAttempts:  getEnvInt("SINK_MAX_ATTEMPTS", 5),
		SinkMinBackoff:   getEnvDuration("SINK_MIN_BACKOFF", 500*time.Millisecond),
		SinkMaxBackoff:   getEnvDuration("SINK_MAX_BACKOFF", 15*time.Second),
		CatalogCacheTTL:  getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		AdminSecret:      getEnv("ADMIN_SECRET", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return cfg, nil
}

// dataFile 文件名可单独覆盖，相对路径基于 DATA_DIR
func dataFile(dataDir, key, defaultName string) string {
	name := getEnv(key, defaultName)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
