package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// EmptyRoomGraceSeconds is how long an empty room survives before the
	// sweeper reclaims it, so a quick reconnect does not lose the room.
	EmptyRoomGraceSeconds int `mapstructure:"EMPTY_ROOM_GRACE_SECONDS"`
	SweepIntervalSeconds  int `mapstructure:"SWEEP_INTERVAL_SECONDS"`

	// BuzzerReset is what the buzzer returns to when a buzz is never judged:
	// "active", "inactive" or "none" to disable the timer entirely.
	BuzzerReset string `mapstructure:"BUZZER_RESET"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("EMPTY_ROOM_GRACE_SECONDS", 60)
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 30)
	viper.SetDefault("BUZZER_RESET", "active")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
