package transport

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Context はトランスポートサブシステムのルートハンドルとデバイススナップショットを所有する
//
// ルートハンドルとスナップショットは生成後は読み取り専用であり、破棄時に一度だけ
// 解放される。可変の共有状態は handlerRequests とポンプの状態のみで、どちらも
// 単一のミューテックスで保護される。
type Context struct {
	binding  Binding
	handle   Handle
	snapshot *Snapshot

	mu              sync.Mutex
	handlerRequests int         // イベント配信を要求しているコンシューマー数
	killHandler     atomic.Bool // ポンプへの停止シグナル
	pumpDone        chan struct{}
	closed          bool
}

// NewContext は新しいContextを作成する
//
// 初期化は settings.InitRetries 回まで試行し、失敗のたびに settings.RetryDelay
// だけ待機する。RetryDelay が 0 の場合は待機しない。全試行が失敗した場合も
// エラーは返さず、デバイス数 0 の縮退状態で生成が完了する。呼び出し側は
// デバイス数で利用可否を判断すること。
func NewContext(binding Binding, settings Settings) *Context {
	c := &Context{binding: binding}

	if settings.InitRetries <= 0 {
		settings.InitRetries = DefaultSettings().InitRetries
	}
	if settings.RetryDelay < 0 {
		settings.RetryDelay = 0
	}

	for attempt := 1; attempt <= settings.InitRetries; attempt++ {
		log.Printf("トランスポートの初期化を試行しています (%d/%d)", attempt, settings.InitRetries)

		handle, err := binding.Init()
		if err != nil {
			log.Printf("トランスポートの初期化に失敗 (試行 %d): %v", attempt, err)
			// 部分的に初期化されたハンドルは次の試行の前に破棄する
			if handle != nil {
				binding.Shutdown(handle)
			}
			if attempt < settings.InitRetries {
				time.Sleep(settings.RetryDelay)
			}
			continue
		}

		raw, err := binding.Enumerate(handle)
		if err != nil {
			// 列挙の失敗も初期化試行の失敗として扱う
			log.Printf("デバイスの列挙に失敗 (試行 %d): %v", attempt, err)
			binding.Shutdown(handle)
			if attempt < settings.InitRetries {
				time.Sleep(settings.RetryDelay)
			}
			continue
		}

		c.handle = handle
		c.snapshot = newSnapshot(raw)
		log.Printf("%d 台のデバイスを検出しました", c.snapshot.Count())
		return c
	}

	// 全試行が失敗: ハンドルなし・スナップショットなしの縮退状態で続行する
	log.Printf("トランスポートの初期化に %d 回失敗しました。デバイスなしで続行します", settings.InitRetries)
	return c
}

// DeviceCount はスナップショットに含まれるデバイス数を返す
// 縮退状態のコンテキストでは 0 を返す
func (c *Context) DeviceCount() int {
	return c.snapshot.Count()
}

// GetDevice は指定されたインデックスのデバイスを取得する
// 範囲外の場合は (nil, false) を返す
func (c *Context) GetDevice(index int) (*Device, bool) {
	return c.snapshot.Device(index)
}

// Devices はスナップショットに含まれる全デバイスのコピーを返す
func (c *Context) Devices() []Device {
	return c.snapshot.Devices()
}

// ActiveConsumers は現在イベント配信を要求しているコンシューマー数を返す
func (c *Context) ActiveConsumers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlerRequests
}

// StartEventHandler はイベント配信の要求を1件追加する
//
// カウントが 0→1 になったとき、単一のイベントポンプを起動する。以前のポンプが
// 停止済みで未回収の場合は、先にその終了を回収してから新しいポンプを起動する。
// 各呼び出しはちょうど1回の StopEventHandler と対にすること。
func (c *Context) StartEventHandler() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初期化に失敗している場合は処理するものがない
	if c.handle == nil {
		return
	}

	if c.handlerRequests == 0 {
		if c.pumpDone != nil {
			// 前回のポンプは停止シグナルを観測して終了しているはずなので、
			// ここで終了を回収してから停止フラグを戻す
			<-c.pumpDone
			c.pumpDone = nil
			c.killHandler.Store(false)
		}

		done := make(chan struct{})
		c.pumpDone = done
		go c.pumpEvents(done)
	}

	c.handlerRequests++
}

// StopEventHandler はイベント配信の要求を1件取り下げる
//
// カウントが 0 になったとき停止フラグを立てる。ポンプの終了はこの呼び出しの中
// では待たず、次の StartEventHandler か Close で回収する。対になる
// StartEventHandler のない呼び出しは呼び出し側の誤用であり、無視される。
func (c *Context) StopEventHandler() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// StartEventHandler と対称に、縮退状態のコンテキストでは何もしない
	if c.handle == nil {
		return
	}

	if c.handlerRequests == 0 {
		log.Printf("StartEventHandler と対になっていない StopEventHandler の呼び出しを無視します")
		return
	}

	c.handlerRequests--
	if c.handlerRequests == 0 {
		// 最後のデバイスハンドルのクローズがイベントを発生させ、
		// ポンプがこのフラグを観測して終了する
		c.killHandler.Store(true)
	}
}

// pumpEvents はイベントポンプの本体
//
// 停止フラグが立つまで保留中のイベントを処理し続ける。一時的なエラーでは
// 終了せず、記録して継続する。ブロッキング処理中にロックは保持しない。
func (c *Context) pumpEvents(done chan struct{}) {
	defer close(done)

	for !c.killHandler.Load() {
		if err := c.binding.DrainEvents(c.handle, &c.killHandler); err != nil {
			log.Printf("イベント処理でエラーが発生しました: %v", err)
		}
	}
}

// Close はコンテキストを破棄し、所有するリソースを解放する
//
// 前提条件としてコンシューマー数が 0 でなければならない。残ったままの破棄は
// ポンプが解放済みのハンドルに触れる危険があるため、回復可能なエラーではなく
// panic として扱う。解放順序はスナップショット、ポンプ、ルートハンドルの順。
// DeviceCount / GetDevice / Devices はロックなしでスナップショットを参照する
// ため、Close と並行して呼び出してはならない。
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.handlerRequests != 0 {
		panic(fmt.Sprintf("transport: アクティブなコンシューマーが %d 件残ったまま Context を破棄しようとしました", c.handlerRequests))
	}

	// スナップショットはルートハンドルが有効なうちに解放する
	if c.snapshot != nil {
		c.binding.FreeDeviceList(c.snapshot.release(), true)
		c.snapshot = nil
	}

	// 停止済みのポンプが未回収ならここで終了を待つ
	if c.pumpDone != nil {
		<-c.pumpDone
		c.pumpDone = nil
	}

	if c.handle != nil {
		c.binding.Shutdown(c.handle)
		c.handle = nil
	}

	c.closed = true
}

// pumpAlive はポンプのゴルーチンが生存しているかを返す（テスト用）
func (c *Context) pumpAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pumpDone == nil {
		return false
	}
	select {
	case <-c.pumpDone:
		return false
	default:
		return true
	}
}
