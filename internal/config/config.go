package config

import (
	"fmt"
	"os"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // DSN直指定（あれば最優先）
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト
	PostgresPort     string // DBポート

	RedisAddr     string // カートスナップショット保存先
	RedisPassword string

	JWTSecret string // アクセストークン署名シークレット

	// 決済ウィジェット連動キー。未設定でも起動は止めず、
	// 決済経路だけが設定エラーとして報告される
	PaymentWidgetClientKey string
	PaymentWidgetBaseURL   string // ウィジェットAPIのベースURL

	AppBaseURL string // 成功/失敗コールバックURLの組み立てに使う
	GoEnv      string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     os.Getenv("POSTGRES_PORT"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentWidgetClientKey: os.Getenv("PAYMENT_WIDGET_CLIENT_KEY"),
		PaymentWidgetBaseURL:   os.Getenv("PAYMENT_WIDGET_BASE_URL"),

		AppBaseURL: os.Getenv("APP_BASE_URL"),
		GoEnv:      os.Getenv("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AppBaseURL == "" {
		return Config{}, fmt.Errorf("APP_BASE_URL is required")
	}

	if cfg.PaymentWidgetBaseURL == "" {
		cfg.PaymentWidgetBaseURL = "https://api.tosspayments.com"
	}

	return cfg, nil
}
