package main

import "time"

type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY"`
	SessionDuration time.Duration `env:"SESSION_DURATION,default=24h"`

	// 64 hex chars, 32-byte AES key protecting message bodies at rest.
	EncryptionKey string `env:"ENCRYPTION_KEY,required=true"`

	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=32"`

	CensoredWords []string `env:"CENSORED_WORDS"`
	CensorChar    string   `env:"CENSOR_CHARACTER,default=*"`

	IPInfoBaseURL string `env:"IPINFO_BASE_URL,default=https://ipinfo.io"`
	IPInfoToken   string `env:"IPINFO_TOKEN"`

	// "smtp" sends real mail; anything else logs the codes (dev mode).
	MailerMode   string `env:"MAILER_MODE,default=log"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME,default=Social Lab"`
}
