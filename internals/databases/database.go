package database

import (
	"context"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"propertytools_backend/internals/configs"
)

var DB *gorm.DB

// DSN builds the WordPress MySQL DSN from DB_* env vars.
func DSN() string {
	cfg := mysqldrv.NewConfig()
	cfg.User = configs.GetEnv("DB_USER")
	cfg.Passwd = configs.GetEnv("DB_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", configs.GetEnv("DB_HOST", "127.0.0.1"), configs.GetEnv("DB_PORT", "3306"))
	cfg.DBName = configs.GetEnv("DB_NAME")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = configs.GetEnvDuration("DB_READ_TIMEOUT", 60*time.Second)
	cfg.WriteTimeout = configs.GetEnvDuration("DB_WRITE_TIMEOUT", 60*time.Second)
	cfg.Params = map[string]string{"charset": configs.GetEnv("DB_CHARSET", "utf8mb4")}
	return cfg.FormatDSN()
}

func ConnectDB() {
	log := configs.Logger
	log.Info("[DB] connecting to WordPress MySQL", zap.String("host", configs.GetEnv("DB_HOST", "127.0.0.1")))

	db, err := Open(DSN())
	if err != nil {
		log.Fatal("[DB] connect failed", zap.Error(err))
	}
	DB = db
	log.Info("[DB] connected")
}

// Open opens a gorm handle on the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{
		Logger:                 configs.NewGormLogger(),
		SkipDefaultTransaction: true,
	})
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		configs.Logger.Warn("[DB] pool tune failed", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(configs.GetEnvInt("DB_MAX_OPEN", 10))
	sqlDB.SetMaxIdleConns(configs.GetEnvInt("DB_MAX_IDLE", 5))
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(context.Background()); err != nil {
			configs.Logger.Warn("[DB] warm-up ping failed", zap.Error(err))
		}
	}()
}

func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
