package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	// Timezone is the fixed IANA zone every calendar-day computation uses.
	Timezone     string
	Location     *time.Location
	DatabasePath string
	JWTSecret    string

	// Optional integrations
	GeminiAPIKey string

	// Telegram Config
	TelegramBotToken    string
	TelegramWebhookURL  string
	TelegramAllowUserID int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	timezone := os.Getenv("TIMEZONE")
	if timezone == "" {
		return nil, fmt.Errorf("TIMEZONE environment variable not set")
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	// Optional: weekly summary generation is disabled without a key.
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")

	// Telegram Config (Optional for the API server, required for the bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")
	telegramAllowUserIDStr := os.Getenv("TELEGRAM_ALLOW_USER_ID")
	var telegramAllowUserID int64
	if telegramAllowUserIDStr != "" {
		fmt.Sscanf(telegramAllowUserIDStr, "%d", &telegramAllowUserID)
	}

	return &Config{
		Timezone:            timezone,
		Location:            location,
		DatabasePath:        databasePath,
		JWTSecret:           jwtSecret,
		GeminiAPIKey:        geminiAPIKey,
		TelegramBotToken:    telegramBotToken,
		TelegramWebhookURL:  telegramWebhookURL,
		TelegramAllowUserID: telegramAllowUserID,
	}, nil
}
