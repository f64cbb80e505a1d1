package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB     int    `mapstructure:"REDIS_AUTH_DB"`
	RedisSweepQueue int    `mapstructure:"REDIS_SWEEP_QUEUE_DB"`

	// Payment processor.
	StripeKey   string `mapstructure:"STRIPE_KEY"`
	PaymentMode string `mapstructure:"PAYMENT_MODE"` // "stripe" or "fake"
	Currency    string `mapstructure:"CURRENCY"`

	// Escrow lifecycle knobs.
	PlatformFeePercent      float64 `mapstructure:"PLATFORM_FEE_PERCENT"`
	CaptureDelayHours       int     `mapstructure:"CAPTURE_DELAY_HOURS"`
	ConfirmationWindowHours int     `mapstructure:"CONFIRMATION_WINDOW_HOURS"`
	MinBookingAmount        float64 `mapstructure:"MIN_BOOKING_AMOUNT"`
	CheckoutSuccessURL      string  `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL       string  `mapstructure:"CHECKOUT_CANCEL_URL"`

	// Firebase push notifications.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_SWEEP_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "brightnest")
	viper.SetDefault("PAYMENT_MODE", "stripe")
	viper.SetDefault("CURRENCY", "eur")
	viper.SetDefault("PLATFORM_FEE_PERCENT", 15.0)
	viper.SetDefault("CAPTURE_DELAY_HOURS", 24)
	viper.SetDefault("CONFIRMATION_WINDOW_HOURS", 72)
	viper.SetDefault("MIN_BOOKING_AMOUNT", 0.50)
	viper.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/bookings/verify")
	viper.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/bookings/cancelled")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
