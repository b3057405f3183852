package transport

import (
	"sync/atomic"
	"time"
)

// Handle は初期化済みトランスポートサブシステムを表す不透明なルートハンドル
// nil は未初期化（または初期化失敗）を意味する
type Handle any

// RawDevice は列挙された個々の生デバイス参照を表す
type RawDevice interface {
	// Path はデバイスパスを返す（例: /sys/bus/usb/devices/1-2）
	Path() string

	// Name はデバイスの表示名を返す
	Name() string
}

// Binding は下位トランスポートライブラリの呼び出し面を表す
// この層では再実装せず、外部実装（またはテスト用モック）を注入する
type Binding interface {
	// Init はトランスポートサブシステムを初期化しルートハンドルを返す
	Init() (Handle, error)

	// Enumerate は現在接続されているデバイス一覧を返す
	Enumerate(h Handle) ([]RawDevice, error)

	// FreeDeviceList はデバイス一覧を解放する
	// deep が true の場合、一覧が所有する各エントリーも解放する
	FreeDeviceList(devices []RawDevice, deep bool)

	// DrainEvents は保留中のトランスポートイベントを処理する
	// 停止フラグが立つか、イベントの一区切りを処理するまでブロックする
	DrainEvents(h Handle, stop *atomic.Bool) error

	// Shutdown はルートハンドルを解放する
	Shutdown(h Handle)
}

// Settings はコンテキスト生成時の初期化ポリシーを表す
type Settings struct {
	InitRetries int           // 初期化の最大試行回数
	RetryDelay  time.Duration // 試行間の待機時間（0 の場合は待機しない）
}

// DefaultSettings はデフォルトの初期化ポリシーを返す
func DefaultSettings() Settings {
	return Settings{
		InitRetries: 10,
		RetryDelay:  100 * time.Millisecond,
	}
}
