package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Config holds all the configuration for the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Token     TokenConfig
	OTP       OTPConfig
	Waha      WahaConfig
	SMTP      SMTPConfig
	Templates TemplatesConfig
	JWTSecret string `mapstructure:"jwtsecret"`

	// PasswordResetURL is the client page that receives ?token=... from reset messages.
	PasswordResetURL string `mapstructure:"passwordreseturl"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// MongoConfig holds the MongoDB configuration used when Store.Driver is "mongo".
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// TokenConfig controls bearer token issuance. A single TTL applies to every issuance path.
type TokenConfig struct {
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// OTPConfig controls the one-time passcode policy.
type OTPConfig struct {
	ResendCooldown time.Duration `mapstructure:"resendcooldown"`
}

// WahaConfig holds the installation defaults for the messaging gateway. Site settings
// stored in the database take precedence over these values.
type WahaConfig struct {
	BaseURL     string        `mapstructure:"baseurl"`
	SessionName string        `mapstructure:"sessionname"`
	APIKey      string        `mapstructure:"apikey"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
	Username string `mapstructure:"username"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
}

// TemplatesConfig points the notification template engine at a directory on disk.
// Empty Dir uses the templates embedded in the binary.
type TemplatesConfig struct {
	Dir    string `mapstructure:"dir"`
	Reload bool   `mapstructure:"reload"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	bindings := map[string]string{
		"server.port":        "SERVER_PORT",
		"server.env":         "SERVER_ENV",
		"store.driver":       "STORE_DRIVER",
		"database.url":       "DATABASE_URL",
		"mongo.url":          "MONGO_URL",
		"mongo.database":     "MONGO_DATABASE",
		"redis.url":          "REDIS_URL",
		"jwtsecret":          "JWT_SECRET",
		"token.issuer":       "TOKEN_ISSUER",
		"token.ttl":          "TOKEN_TTL",
		"otp.resendcooldown": "OTP_RESEND_COOLDOWN",
		"waha.baseurl":       "WAHA_BASE_URL",
		"waha.sessionname":   "WAHA_SESSION_NAME",
		"waha.apikey":        "WAHA_API_KEY",
		"waha.timeout":       "WAHA_TIMEOUT",
		"smtp.from":          "SMTP_FROM",
		"smtp.password":      "SMTP_PASSWORD",
		"smtp.username":      "SMTP_USERNAME",
		"smtp.port":          "SMTP_PORT",
		"smtp.host":          "SMTP_HOST",
		"templates.dir":      "TEMPLATES_DIR",
		"templates.reload":   "TEMPLATES_RELOAD",
		"passwordreseturl":   "PASSWORD_RESET_URL",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}

	if err := viper.ReadInConfig(); err != nil {
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		}
		log.Printf("⚠️ .env file not found, relying on environment variables")
	} else {
		log.Printf("ℹ️ Using config file: %s", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	cfg.applyDefaults()

	if cfg.JWTSecret == "" {
		log.Printf("⚠️ JWT_SECRET is empty; tokens cannot be issued")
		return nil
	}

	log.Printf("🔎 Config: Server.Port=%q Server.Env=%q Store.Driver=%q Token.TTL=%s OTP.ResendCooldown=%s WahaKeySet=%t",
		cfg.Server.Port,
		cfg.Server.Env,
		cfg.Store.Driver,
		cfg.Token.TTL,
		cfg.OTP.ResendCooldown,
		cfg.Waha.APIKey != "",
	)
	log.Println("✅ Configuration loaded successfully")
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverPostgres
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "identity"
	}
	if c.Token.Issuer == "" {
		c.Token.Issuer = "go-otp-identity"
	}
	if c.Token.TTL <= 0 {
		c.Token.TTL = 30 * 24 * time.Hour
	}
	if c.OTP.ResendCooldown <= 0 {
		c.OTP.ResendCooldown = time.Minute
	}
	if c.Waha.SessionName == "" {
		c.Waha.SessionName = "default"
	}
	if c.Waha.Timeout <= 0 {
		c.Waha.Timeout = 15 * time.Second
	}
}
