// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Payments                `yaml:"payments"`
	RateLimit               `yaml:"rate_limit"`
	Scheduler               `yaml:"scheduler"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress      string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword     string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser         string        `yaml:"user"`
	RedisDB           int           `yaml:"db"`
	RedisMaxRetries   int           `yaml:"max_retries"`
	RedisDialTimeout  time.Duration `yaml:"dial_timeout"`
	RedisTimeoutRedis time.Duration `yaml:"timeoutredis"`
	PlansTTL          time.Duration `yaml:"plans_ttl" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки брокера доменных событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries     int           `yaml:"retries" env-default:"5"`
	Delay       time.Duration `yaml:"delay" env-default:"2s"`
}

// Payments настройки платёжного провайдера
type Payments struct {
	WebhookSecret   string            `yaml:"webhook_secret" env:"PAYMENTS_WEBHOOK_SECRET"`
	ProviderKey     string            `yaml:"provider_key" env:"PAYMENTS_PROVIDER_KEY"`
	ProviderBaseURL string            `yaml:"provider_base_url" env-default:"https://api.stripe.com"`
	SuccessURL      string            `yaml:"success_url" env-default:"http://localhost:3000/payments/success"`
	CancelURL       string            `yaml:"cancel_url" env-default:"http://localhost:3000/payments/cancel"`
	Currency        string            `yaml:"currency" env-default:"RWF"`
	PlanPriceIDs    map[string]string `yaml:"plan_price_ids"`
}

// RateLimit ограничение частоты запросов на одного клиента
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// Scheduler настройки воркера напоминаний
type Scheduler struct {
	CronSpec     string        `yaml:"cron_spec" env-default:"0 9 * * *"`
	RemindWithin time.Duration `yaml:"remind_within" env-default:"72h"`
}

// Admin учётная запись администратора, создаваемая при старте. Пустой
// AdminUsername отключает создание.
type Admin struct {
	AdminUsername string `yaml:"username" env:"ADMIN_USERNAME"`
	AdminEmail    string `yaml:"email" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// MustLoad функция для загрузки конфига из файла по пути CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// String выводит конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  PlansTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"Payments:\n"+
			"  WebhookSigned: %t\n"+
			"  ProviderConfigured: %t\n"+
			"RateLimit:\n"+
			"  RPS: %.1f\n"+
			"  Burst: %d\n",
		c.Env,
		c.RedisAddress,
		c.RedisDB,
		c.PlansTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.RabbitMQURL != "",
		c.WebhookSecret != "",
		c.ProviderKey != "",
		c.RPS,
		c.Burst,
	)
}
