package configs

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret   string
	NonceSecret string
	Logger      = zap.NewNop()
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	managed := os.Getenv("RAILWAY_ENVIRONMENT") != ""
	var envErr error
	if !managed {
		envErr = godotenv.Load()
	}

	// .env may carry APP_DEBUG, so the logger comes after it
	InitLogger(GetEnvBool("APP_DEBUG", false))

	switch {
	case managed:
		Logger.Info("[CONFIG] running in managed environment, using system environment")
	case envErr != nil:
		Logger.Info("[CONFIG] no .env file, using system environment")
	default:
		Logger.Info("[CONFIG] .env loaded")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	NonceSecret = GetEnv("NONCE_SECRET", JWTSecret)

	if JWTSecret == "" {
		Logger.Warn("[CONFIG] JWT_SECRET is not set, admin routes will reject every request")
	}
}

// InitLogger replaces the root logger. Debug mode uses the development encoder.
func InitLogger(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return
	}
	Logger = l
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || value == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// TablePrefix is the WordPress $table_prefix.
func TablePrefix() string {
	return GetEnv("WP_TABLE_PREFIX", "wp_")
}

// SiteLocation is the site's timezone, used for the local-time post columns.
func SiteLocation() *time.Location {
	name := GetEnv("WP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		Logger.Sugar().Warnf("[CONFIG] unknown WP_TIMEZONE %q, using UTC", name)
		return time.UTC
	}
	return loc
}

// =======================
// GORM LOGGER (zap)
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	log           *zap.Logger
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: GetEnvDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
		LogLevel:      level,
		log:           Logger.Named("gorm"),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("caller", utils.FileWithLineNum()),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("[QUERY ERROR]", append(fields, zap.Error(err))...)
	case elapsed > l.SlowThreshold && l.SlowThreshold > 0:
		l.log.Warn("[SLOW SQL]", fields...)
	case l.LogLevel >= gormLogger.Info:
		l.log.Info("[QUERY]", fields...)
	}
}
