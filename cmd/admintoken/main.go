// admintoken 为管理接口签发 JWT，密钥读取 ADMIN_SECRET
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/user/moviegraph/internal/config"
	"github.com/user/moviegraph/internal/middleware"
)

func main() {
	subject := flag.String("subject", "ops", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	if cfg.AdminSecret == "" {
		log.Fatal("ADMIN_SECRET 未设置")
	}

	token, err := middleware.GenerateToken(*subject, middleware.RoleAdmin, cfg.AdminSecret, *ttl)
	if err != nil {
		log.Fatalf("签发失败: %v", err)
	}
	fmt.Println(token)
}
