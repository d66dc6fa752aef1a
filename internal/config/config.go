package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the carjoy API service.
type Config struct {
	Addr            string        `env:"ADDR,default=:8080"`
	DBDSN           string        `env:"DB_DSN"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY,required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,default=24h"`
	UploadDir       string        `env:"UPLOAD_DIR,default=uploads"`
	StorageBackend  string        `env:"STORAGE_BACKEND,default=local"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3PublicBaseURL string        `env:"S3_PUBLIC_BASE_URL"`
	NATSURL         string        `env:"NATS_URL"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`
	CookieSecure    bool          `env:"COOKIE_SECURE,default=false"`
	DevMode         bool          `env:"DEV_MODE,default=false"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
