package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // 容器镜像可能缺少系统时区库

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Library    LibraryConfig    `mapstructure:"library"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（会话存储、Token 黑名单、限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证与会话配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	// SessionTTL 会话数据（签到码、逾期提醒标记）的存活时间，通常与 Refresh Token 一致
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LibraryConfig 借阅业务规则
type LibraryConfig struct {
	Timezone         string `mapstructure:"timezone"`
	MaxActiveBorrows int    `mapstructure:"max_active_borrows"` // 待取 + 借阅中 上限
	LoanMonths       int    `mapstructure:"loan_months"`        // 激活时自动计算的借期（月）
	ReminderDays     int    `mapstructure:"reminder_days"`      // 到期前多少天开始提醒
}

// Location 解析业务时区
func (c *LibraryConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// AttendanceConfig 签到配置
type AttendanceConfig struct {
	// CodeTTL 签到码独立有效期；0 表示与会话同生命周期
	CodeTTL time.Duration `mapstructure:"code_ttl"`
	QRSize  int           `mapstructure:"qr_size"`
}

// RateLimitConfig 敏感接口限流配置
type RateLimitConfig struct {
	LoginLimit  int           `mapstructure:"login_limit"`
	LoginWindow time.Duration `mapstructure:"login_window"`
	CheckLimit  int           `mapstructure:"check_limit"`
	CheckWindow time.Duration `mapstructure:"check_window"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；若存在 .env 则先注入进程环境
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("LIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "ptit_library")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "") // 无默认值，需通过 LIB_AUTH_JWT_SECRET 注入
	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.refresh_token_ttl", "336h")
	v.SetDefault("auth.session_ttl", "336h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("library.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("library.max_active_borrows", 7)
	v.SetDefault("library.loan_months", 5)
	v.SetDefault("library.reminder_days", 7)

	v.SetDefault("attendance.code_ttl", "0s")
	v.SetDefault("attendance.qr_size", 256)

	v.SetDefault("rate_limit.login_limit", 10)
	v.SetDefault("rate_limit.login_window", "1m")
	v.SetDefault("rate_limit.check_limit", 20)
	v.SetDefault("rate_limit.check_window", "1m")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := c.Library.Location(); err != nil {
		return fmt.Errorf("配置校验失败: library.timezone 无效: %w", err)
	}
	if c.Library.MaxActiveBorrows <= 0 {
		return fmt.Errorf("配置校验失败: library.max_active_borrows 必须大于 0")
	}
	if c.Library.LoanMonths <= 0 {
		return fmt.Errorf("配置校验失败: library.loan_months 必须大于 0")
	}
	if c.Library.ReminderDays < 0 {
		return fmt.Errorf("配置校验失败: library.reminder_days 不能为负数")
	}
	if c.Attendance.CodeTTL < 0 {
		return fmt.Errorf("配置校验失败: attendance.code_ttl 不能为负数")
	}
	return nil
}
