package config

import (
	"fmt"
	"os"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// TransportConfig はトランスポートサブシステムの設定
type TransportConfig struct {
	InitRetries  int           `yaml:"init_retries"`  // 初期化の最大試行回数
	RetryDelay   time.Duration `yaml:"retry_delay"`   // 初期化試行間の待機時間
	PollInterval time.Duration `yaml:"poll_interval"` // イベントポーリング間隔
}

// Load は設定を読み込む
// 環境変数が設定されていない項目はデフォルト値を使用する
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Transport: TransportConfig{
			InitRetries:  getEnvAsIntOrDefault("TRANSPORT_INIT_RETRIES", 10),
			RetryDelay:   time.Duration(getEnvAsIntOrDefault("TRANSPORT_RETRY_DELAY_MS", 100)) * time.Millisecond,
			PollInterval: time.Duration(getEnvAsIntOrDefault("TRANSPORT_POLL_INTERVAL_MS", 100)) * time.Millisecond,
		},
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// トランスポート設定の検証
	if c.Transport.InitRetries < 1 {
		return fmt.Errorf("無効な初期化試行回数: %d", c.Transport.InitRetries)
	}
	if c.Transport.RetryDelay < 0 {
		return fmt.Errorf("無効な初期化待機時間: %v", c.Transport.RetryDelay)
	}
	if c.Transport.PollInterval <= 0 {
		return fmt.Errorf("無効なポーリング間隔: %v", c.Transport.PollInterval)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
