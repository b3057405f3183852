package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tsunagi/internal/config"
	"tsunagi/internal/transport"

	"github.com/gin-gonic/gin"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	transport  *transport.Context
	router     *gin.Engine
	httpServer *http.Server

	// サーバーがイベント配信要求を保持しているか
	pumping bool
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, tc *transport.Context) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	return &Server{
		config:    cfg,
		transport: tc,
		router:    router,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	// ヘルスチェックエンドポイント
	s.router.GET("/health", s.handleHealth)

	// APIエンドポイント
	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/devices", s.handleDevices)
		api.GET("/devices/:id", s.handleDevice)
	}
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// ルートを設定
	s.setupRoutes()

	// サーバーが稼働している間はイベントを処理し続ける
	// 縮退状態のコンテキストでは何も起こらない
	s.transport.StartEventHandler()
	s.pumping = true

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		s.releaseEventHandler()
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// イベント配信の要求を取り下げる
	s.releaseEventHandler()

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}

// releaseEventHandler はサーバーが保持しているイベント配信要求を取り下げる
func (s *Server) releaseEventHandler() {
	if s.pumping {
		s.transport.StopEventHandler()
		s.pumping = false
	}
}
