// Initializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	VNPay    VNPayConfig    `mapstructure:"vnpay"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string `json:"URL"`
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required"`
	Password string `json:"password" validate:"required"`
	DB       int    `json:"db" validate:"required"`

	// Настройки пула соединений
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	MaxIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

type BookingConfig struct {
	MaxStayNights int `mapstructure:"max_stay_nights"`
	MaxPeople     int `mapstructure:"max_people"`
}

type WorkerConfig struct {
	ReconcileInterval int `mapstructure:"reconcile_interval"` // в минутах
	StaleAfter        int `mapstructure:"stale_after"`        // в минутах
	BatchSize         int `mapstructure:"batch_size"`
}

type VNPayConfig struct {
	TmnCode        string        `mapstructure:"tmn_code"`
	HashSecret     string        `mapstructure:"hash_secret"`
	PayURL         string        `mapstructure:"pay_url"`
	APIURL         string        `mapstructure:"api_url"`
	ReturnURL      string        `mapstructure:"return_url"`
	Version        string        `mapstructure:"version"`
	CurrencyCode   string        `mapstructure:"currency_code"`
	Locale         string        `mapstructure:"locale"`
	OrderType      string        `mapstructure:"order_type"`
	ExpireMinutes  int           `mapstructure:"expire_minutes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
