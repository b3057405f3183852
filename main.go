package main

import (
	"context"
	"log"
	"os"

	"tsunagi/internal/config"
	"tsunagi/internal/server"
	"tsunagi/internal/transport"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// トランスポートコンテキストを作成
	// 初期化に失敗した場合もデバイス数 0 で続行する
	tc := transport.NewContext(transport.NewLinuxBinding(cfg.Transport.PollInterval), transport.Settings{
		InitRetries: cfg.Transport.InitRetries,
		RetryDelay:  cfg.Transport.RetryDelay,
	})
	defer tc.Close()

	// サーバーを作成
	srv := server.New(cfg, tc)

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを起動
	if err := srv.Start(ctx); err != nil {
		log.Printf("サーバーの起動に失敗しました: %v", err)
		tc.Close()
		os.Exit(1)
	}
}
