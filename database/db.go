package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the store with pooling and retry. MySQL is the production
// driver; DB_DRIVER=sqlite switches to a file database for local runs and
// tests. The handle is process-scoped: opened once, reused, never reset
// mid-request.
func Connect() (*gorm.DB, error) {
	if DB != nil {
		return DB, nil
	}

	var dialector gorm.Dialector
	switch strings.ToLower(getenv("DB_DRIVER", "mysql")) {
	case "sqlite":
		path := getenv("DB_PATH", "giftbot.db")
		// busy_timeout makes concurrent reserve transactions queue on the
		// write lock instead of failing with SQLITE_BUSY.
		dialector = sqlite.Open(path + "?_busy_timeout=10000&_fk=1")
		log.Printf("[database] using sqlite store at %s", path)
	default:
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			host := getenv("DB_HOST", "127.0.0.1")
			port := getenv("DB_PORT", "3306")
			user := getenv("DB_USER", "root")
			pass := getenv("DB_PASS", "")
			name := getenv("DB_NAME", "giftbot")
			params := getenv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local")
			if !strings.Contains(params, "timeout=") {
				params += "&timeout=10s"
			}
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, name, params)
		}
		safeDSN := dsn
		if pass := os.Getenv("DB_PASS"); pass != "" {
			safeDSN = strings.Replace(safeDSN, pass, "******", 1)
		}
		log.Printf("[database] using DSN: %s", safeDSN)
		dialector = gormmysql.Open(dsn)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if strings.ToLower(getenv("ENV", "development")) == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	maxRetries := atoi(getenv("DB_CONNECT_RETRIES", "5"))
	var db *gorm.DB
	var err error
	backoff := time.Second
	for attempt := 0; attempt < maxRetries; attempt++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
		if err == nil {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(atoi(getenv("DB_MAX_OPEN_CONNS", "25")))
	sqlDB.SetMaxIdleConns(atoi(getenv("DB_MAX_IDLE_CONNS", "25")))
	sqlDB.SetConnMaxLifetime(time.Duration(atoi(getenv("DB_CONN_MAX_LIFETIME", "3600"))) * time.Second)

	if err := pingWithTimeout(sqlDB, 5*time.Second); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	DB = db
	return DB, nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	if v <= 0 {
		return 0
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func pingWithTimeout(db *sql.DB, timeout time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- db.Ping()
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("ping timeout after %s", timeout)
	}
}
