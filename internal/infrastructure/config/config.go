package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Config 全局配置
// YAML + 环境变量覆盖（前缀PERFUMESTORE，如PERFUMESTORE_DATABASE_PASSWORD）
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Cart      CartConfig      `mapstructure:"cart"`
	Shipping  ShippingConfig  `mapstructure:"shipping"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Mail      MailConfig      `mapstructure:"mail"`
	MQ        MQConfig        `mapstructure:"mq"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BaseURL      string        `mapstructure:"base_url"` // 对外地址，支付回跳等使用
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN MySQL连接串，loc需要URL编码（Africa/Lagos → Africa%2FLagos）
// clientFoundRows让RowsAffected返回匹配行数，值未变化的UPDATE不会被当成记录不存在
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s&clientFoundRows=true",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, url.QueryEscape(d.Loc))
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// AdminConfig 管理员邮箱白名单（大小写不敏感）
type AdminConfig struct {
	Emails []string `mapstructure:"emails"`
}

// IsAdmin 邮箱是否在白名单内
func (a AdminConfig) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range a.Emails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

type CartConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"` // Cookie仅HTTPS
}

// ShippingConfig 运费（NGN）
type ShippingConfig struct {
	FlatFee   int64            `mapstructure:"flat_fee"`
	FreeOver  int64            `mapstructure:"free_over"` // 0表示不包邮
	StateFees map[string]int64 `mapstructure:"state_fees"`
}

type PaymentConfig struct {
	BaseURL     string               `mapstructure:"base_url"`
	SecretKey   string               `mapstructure:"secret_key"`
	CallbackURL string               `mapstructure:"callback_url"`
	Timeout     time.Duration        `mapstructure:"timeout"`
	Breaker     CircuitBreakerConfig `mapstructure:"breaker"`
}

type CircuitBreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type MailConfig struct {
	Host     string  `mapstructure:"host"`
	Port     int     `mapstructure:"port"`
	Username string  `mapstructure:"username"`
	Password string  `mapstructure:"password"`
	From     string  `mapstructure:"from"`
	Rate     float64 `mapstructure:"rate"` // 每秒最多发送封数
	Burst    int     `mapstructure:"burst"`
}

// Addr SMTP地址
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

type MQConfig struct {
	URL        string   `mapstructure:"url"`
	Exchange   string   `mapstructure:"exchange"`
	Queue      string   `mapstructure:"queue"`
	RoutingKey string   `mapstructure:"routing_key"`
	Bindings   []string `mapstructure:"bindings"`
	Prefetch   int      `mapstructure:"prefetch"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"` // 每个窗口允许的请求数
	Window   time.Duration `mapstructure:"window"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load 加载配置
//  1. 默认读取 config/config.yaml
//  2. PERFUMESTORE_ENV=prod 时读取 config.prod.yaml
//  3. 环境变量覆盖同名配置
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	name := "config"
	if env := os.Getenv("PERFUMESTORE_ENV"); env != "" {
		name = "config." + env
	}
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PERFUMESTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Africa/Lagos")
	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_expire", 7*24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("cart.cookie_name", "cart_sid")
	v.SetDefault("cart.ttl", 30*24*time.Hour)
	v.SetDefault("payment.base_url", "https://api.paystack.co")
	v.SetDefault("payment.timeout", 10*time.Second)
	v.SetDefault("payment.breaker.max_requests", 1)
	v.SetDefault("payment.breaker.interval", time.Minute)
	v.SetDefault("payment.breaker.timeout", 30*time.Second)
	v.SetDefault("payment.breaker.consecutive_failures", 5)
	v.SetDefault("mail.rate", 5)
	v.SetDefault("mail.burst", 5)
	v.SetDefault("mq.exchange", "perfumestore.mail")
	v.SetDefault("mq.queue", "perfumestore.mail.jobs")
	v.SetDefault("mq.routing_key", "mail.send")
	v.SetDefault("mq.prefetch", 10)
	v.SetDefault("ratelimit.requests", 20)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("tracing.service_name", "perfumestore")
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	release := cfg.Server.Mode == "release"
	if release && cfg.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}
	if release && cfg.Payment.SecretKey == "" {
		return fmt.Errorf("生产环境必须配置支付密钥 payment.secret_key")
	}
	if cfg.Shipping.FlatFee < 0 || cfg.Shipping.FreeOver < 0 {
		return fmt.Errorf("运费配置不能为负数")
	}
	for state, fee := range cfg.Shipping.StateFees {
		if fee < 0 {
			return fmt.Errorf("州运费不能为负数: %s", state)
		}
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("限流配置无效: requests=%d window=%s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	return nil
}
