// Package main はTsunagiサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tsunagi/internal/config"
	"tsunagi/internal/server"
	"tsunagi/internal/transport"
)

func main() {
	// コマンドラインオプション
	var (
		host    = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port    = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		retries = flag.Int("retries", 0, "トランスポート初期化の最大試行回数 (デフォルト: 10)")
		help    = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Tsunagi")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *retries != 0 {
		cfg.Transport.InitRetries = *retries
	}

	// トランスポートコンテキストを作成
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
	log.Printf("Tsunagi サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
