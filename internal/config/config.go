package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	API      APIConfig
	Shop     ShopConfig
	Twofa    TwofaConfig
	Secrets  SecretsConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token         string
	WebhookURL    string
	UpdateMode    string // "auto", "webhook", "polling"
	AdminID       int64
	Username      string
	ReportChannel int64 // operator alerts + sell reports
	ApprovalChat  int64 // receipts forwarded here for approve/reject
}

type APIConfig struct {
	Key string
}

// ShopConfig carries the sale defaults. Price and referral percent can
// be overridden at runtime through the settings table; these are the
// seed values.
type ShopConfig struct {
	Price           int64
	Currency        string
	ReferralPercent int
	OrderTTL        time.Duration // pending orders older than this expire
}

// TwofaConfig bounds TOTP code requests per order.
type TwofaConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// SecretsConfig holds the key for sealing seat credentials at rest.
type SecretsConfig struct {
	Key string // 32-byte key, hex or raw
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOT_UPDATE_MODE", "auto")
	viper.SetDefault("SHOP_PRICE", 150000)
	viper.SetDefault("SHOP_CURRENCY", "IRT")
	viper.SetDefault("REFERRAL_PERCENT", 10)
	viper.SetDefault("ORDER_TTL", "48h")
	viper.SetDefault("TWOFA_MAX_ATTEMPTS", 3)
	viper.SetDefault("TWOFA_COOLDOWN", "2m")

	orderTTL, err := time.ParseDuration(viper.GetString("ORDER_TTL"))
	if err != nil {
		orderTTL = 48 * time.Hour
	}
	cooldown, err := time.ParseDuration(viper.GetString("TWOFA_COOLDOWN"))
	if err != nil {
		cooldown = 2 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:         viper.GetString("BOT_TOKEN"),
			WebhookURL:    viper.GetString("BOT_WEBHOOK_URL"),
			UpdateMode:    viper.GetString("BOT_UPDATE_MODE"),
			AdminID:       viper.GetInt64("BOT_ADMIN_ID"),
			Username:      viper.GetString("BOT_USERNAME"),
			ReportChannel: viper.GetInt64("REPORT_CHANNEL_ID"),
			ApprovalChat:  viper.GetInt64("APPROVAL_CHAT_ID"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Shop: ShopConfig{
			Price:           viper.GetInt64("SHOP_PRICE"),
			Currency:        viper.GetString("SHOP_CURRENCY"),
			ReferralPercent: viper.GetInt("REFERRAL_PERCENT"),
			OrderTTL:        orderTTL,
		},
		Twofa: TwofaConfig{
			MaxAttempts: viper.GetInt("TWOFA_MAX_ATTEMPTS"),
			Cooldown:    cooldown,
		},
		Secrets: SecretsConfig{
			Key: viper.GetString("SECRETS_KEY"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Bot.Token == "" {
		log.Println("WARNING: BOT_TOKEN is not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database section, for the bootstrap CLI.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	return &DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
