package config

import (
	"testing"
	"time"
)

// TestConfigLoad は設定の読み込みをテストする
func TestConfigLoad(t *testing.T) {
	// 設定を読み込む
	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// 基本的な設定値を検証
	if cfg == nil {
		t.Fatal("設定がnilです")
	}

	// サーバー設定の検証
	if cfg.Server.Host == "" {
		t.Error("サーバーホストが設定されていません")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		t.Errorf("無効なポート番号: %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		t.Error("読み込みタイムアウトが設定されていません")
	}

	// トランスポート設定の検証
	if cfg.Transport.InitRetries < 1 {
		t.Errorf("無効な初期化試行回数: %d", cfg.Transport.InitRetries)
	}
	if cfg.Transport.RetryDelay < 0 {
		t.Errorf("無効な初期化待機時間: %v", cfg.Transport.RetryDelay)
	}
	if cfg.Transport.PollInterval <= 0 {
		t.Errorf("無効なポーリング間隔: %v", cfg.Transport.PollInterval)
	}
}

// TestConfigLoadFromEnv は環境変数からの設定読み込みをテストする
func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("TRANSPORT_INIT_RETRIES", "5")
	t.Setenv("TRANSPORT_RETRY_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("予期しないホスト: %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("予期しないポート: %d", cfg.Server.Port)
	}
	if cfg.Transport.InitRetries != 5 {
		t.Errorf("予期しない初期化試行回数: %d", cfg.Transport.InitRetries)
	}
	if cfg.Transport.RetryDelay != 250*time.Millisecond {
		t.Errorf("予期しない初期化待機時間: %v", cfg.Transport.RetryDelay)
	}

	if got := cfg.ServerAddress(); got != "127.0.0.1:9090" {
		t.Errorf("予期しないサーバーアドレス: %s", got)
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name: "正常な設定",
			config: &Config{
				Server: ServerConfig{
					Host: "localhost",
					Port: 8080,
				},
				Transport: TransportConfig{
					InitRetries:  10,
					RetryDelay:   100 * time.Millisecond,
					PollInterval: 100 * time.Millisecond,
				},
			},
			expectErr: false,
		},
		{
			name: "無効なポート番号",
			config: &Config{
				Server: ServerConfig{
					Host: "localhost",
					Port: 99999, // 無効なポート
				},
				Transport: TransportConfig{
					InitRetries:  10,
					RetryDelay:   100 * time.Millisecond,
					PollInterval: 100 * time.Millisecond,
				},
			},
			expectErr: true,
		},
		{
			name: "無効な初期化試行回数",
			config: &Config{
				Server: ServerConfig{
					Host: "localhost",
					Port: 8080,
				},
				Transport: TransportConfig{
					InitRetries:  0, // 最低1回は試行する必要がある
					RetryDelay:   100 * time.Millisecond,
					PollInterval: 100 * time.Millisecond,
				},
			},
			expectErr: true,
		},
		{
			name: "無効な初期化待機時間",
			config: &Config{
				Server: ServerConfig{
					Host: "localhost",
					Port: 8080,
				},
				Transport: TransportConfig{
					InitRetries:  10,
					RetryDelay:   -time.Second, // 負の待機時間
					PollInterval: 100 * time.Millisecond,
				},
			},
			expectErr: true,
		},
		{
			name: "無効なポーリング間隔",
			config: &Config{
				Server: ServerConfig{
					Host: "localhost",
					Port: 8080,
				},
				Transport: TransportConfig{
					InitRetries:  10,
					RetryDelay:   100 * time.Millisecond,
					PollInterval: 0, // ポーリング間隔は正の値が必要
				},
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}
