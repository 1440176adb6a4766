package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer  HTTPServer `yaml:"http_server"`
	MySQL       MySQL      `yaml:"mysql"`
	Redis       Redis      `yaml:"redis"`
	JWT         JWT        `yaml:"jwt"`
	SMTP        SMTP       `yaml:"smtp"`
	Kafka       Kafka      `yaml:"kafka"`
	Notify      Notify     `yaml:"notify"`
	RateLimit   RateLimit  `yaml:"ratelimit"`
	SiteURL     string     `yaml:"site_url" env:"SITE_URL" env-default:"https://mamane.vercel.app"`
	InternalKey string     `yaml:"internal_key" env:"INTERNAL_KEY" env-required:"true"`
}

type HTTPServer struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

type MySQL struct {
	DSN string `yaml:"dsn" env:"MYSQL_DSN" env-required:"true"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type JWT struct {
	AccessSecret  string `yaml:"access_secret" env:"JWT_ACCESS_SECRET" env-required:"true"`
	RefreshSecret string `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"mamane <noreply@mamane.app>"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"127.0.0.1:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"mamane.notifications"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"notify-worker"`
}

// Notify selects how notification intents leave the request path.
// Mode "sync" delivers inline, "async" keeps them in an in-process queue, "outbox" persists them for the relayer.
type Notify struct {
	Mode        string        `yaml:"mode" env:"NOTIFY_MODE" env-default:"async"`
	Workers     int           `yaml:"workers" env:"NOTIFY_WORKERS" env-default:"4"`
	QueueSize   int           `yaml:"queue_size" env:"NOTIFY_QUEUE_SIZE" env-default:"256"`
	MaxAttempts int           `yaml:"max_attempts" env:"NOTIFY_MAX_ATTEMPTS" env-default:"3"`
	DedupTTL    time.Duration `yaml:"dedup_ttl" env:"NOTIFY_DEDUP_TTL" env-default:"24h"`
}

type RateLimit struct {
	ReactPerMinute    int64 `yaml:"react_per_minute" env:"RATELIMIT_REACT" env-default:"60"`
	FavoritePerMinute int64 `yaml:"favorite_per_minute" env:"RATELIMIT_FAVORITE" env-default:"60"`
}

const (
	NotifyModeSync   = "sync"
	NotifyModeAsync  = "async"
	NotifyModeOutbox = "outbox"
)

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags
	}

	var cfg Config

	if configPath == "" {
		// env only
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("failed to read config from env: %s", err)
		}
		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}

// Default returns a config suitable for local runs and tests.
func Default() *Config {
	return &Config{
		Env:     "local",
		SiteURL: "https://mamane.vercel.app",
		HTTPServer: HTTPServer{
			Address:        ":8080",
			AllowedOrigins: []string{"*"},
		},
		Redis:       Redis{Addr: "127.0.0.1:6379"},
		JWT:         JWT{AccessSecret: "secret-key", RefreshSecret: "refresh-key"},
		SMTP:        SMTP{Port: 587, From: "mamane <noreply@mamane.app>"},
		Kafka:       Kafka{Brokers: []string{"127.0.0.1:9092"}, Topic: "mamane.notifications", GroupID: "notify-worker"},
		Notify:      Notify{Mode: NotifyModeAsync, Workers: 4, QueueSize: 256, MaxAttempts: 3, DedupTTL: 24 * time.Hour},
		RateLimit:   RateLimit{ReactPerMinute: 60, FavoritePerMinute: 60},
		InternalKey: "local-internal-key",
	}
}
