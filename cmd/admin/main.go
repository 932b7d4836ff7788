package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ShengNW/interviewer/internal/config"
	"github.com/ShengNW/interviewer/internal/database"
)

// 树一致性巡检工具。
// 级联删除在单个事务内完成，正常情况下不会留下「父节点已删除但子节点存活」
// 的孤儿记录；本工具用于在数据被旁路修改（历史迁移、手工 SQL 等）之后
// 核查并按需修复这种残留。
func main() {
	var (
		fix     = flag.Bool("fix", false, "将发现的孤儿节点标记为 deleted（默认只报告）")
		dbHost  = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	var nodes []database.Resume
	if err := db.Where("status <> ?", database.StatusDeleted).Find(&nodes).Error; err != nil {
		log.Fatalf("load resumes: %v", err)
	}

	alive := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		alive[n.ID] = struct{}{}
	}

	var orphans []database.Resume
	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		if _, ok := alive[*n.ParentID]; !ok {
			orphans = append(orphans, n)
		}
	}

	if len(orphans) == 0 {
		fmt.Println("巡检完成：未发现孤儿节点。")
		return
	}

	fmt.Printf("发现 %d 个孤儿节点（父节点已删除或不存在）：\n", len(orphans))
	for _, n := range orphans {
		fmt.Printf("  id=%s parent_id=%s root_id=%s depth=%d owner=%s status=%s\n",
			n.ID, *n.ParentID, n.RootID, n.Depth, n.OwnerAddress, n.Status)
	}

	if !*fix {
		fmt.Println("如需将以上节点标记为 deleted，请加 --fix 重新执行。")
		return
	}

	ids := make([]string, 0, len(orphans))
	for _, n := range orphans {
		ids = append(ids, n.ID)
	}

	result := db.Model(&database.Resume{}).
		Where("id IN ? AND status <> ?", ids, database.StatusDeleted).
		Update("status", database.StatusDeleted)
	if result.Error != nil {
		log.Fatalf("mark orphans deleted: %v", result.Error)
	}
	fmt.Printf("已将 %d 个孤儿节点标记为 deleted。\n", result.RowsAffected)
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
