package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTTTL    time.Duration

	Location      *time.Location
	LateAfter     string // HH:MM, local time-of-day after which a check-in is late
	DefaultLocale string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// CORSAllowedOrigins lists origins allowed to call the API; "*" allows all.
	CORSAllowedOrigins []string

	MattermostURL      string
	MattermostBotToken string

	RemindersEnabled     bool
	CheckinReminderCron  string
	CheckoutReminderCron string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: load .env: %v", err)
	}

	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", "*"),

		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGODB_DATABASE", "attendance"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		Location:      getLocation("TIMEZONE"),
		LateAfter:     getEnv("LATE_AFTER", "09:30"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),

		MattermostURL:      strings.TrimRight(getEnv("MATTERMOST_URL", ""), "/"),
		MattermostBotToken: getEnv("MATTERMOST_BOT_TOKEN", ""),

		RemindersEnabled:     getEnv("REMINDERS_ENABLED", "true") == "true",
		CheckinReminderCron:  getEnv("CHECKIN_REMINDER_CRON", "0 9 * * 1-5"),
		CheckoutReminderCron: getEnv("CHECKOUT_REMINDER_CRON", "0 18 * * 1-5"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated value, dropping blanks.
func getList(key, fallback string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, fallback), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getLocation(key string) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: invalid %s=%q, using server local time", key, name)
		return time.Local
	}
	return loc
}
