package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	DBDSN     string `env:"DB_DSN,required"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	JWTSecret string `env:"JWT_SECRET,required"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads/guides"`

	SMTP  SMTPConfig
	Admin AdminConfig
}

// SMTPConfig configures the outbound mailer. An empty Host disables
// email sending entirely (messages are logged instead).
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// AdminConfig holds both the notification target for new guide
// applications and the credentials used to seed the first admin account.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME" envDefault:"Admin"`
}

func Load() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}
