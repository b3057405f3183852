package transport

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// defaultSysfsRoot はLinuxのUSBデバイス情報が公開されるディレクトリ
const defaultSysfsRoot = "/sys/bus/usb/devices"

// LinuxBinding はsysfsを使ったLinux環境向けのトランスポートバインディング実装
//
// デバイスの列挙は /sys/bus/usb/devices 配下のエントリーを読み取って行う。
// イベント処理はポーリングで実装しており、接続・切断の差分を検出して記録する。
type LinuxBinding struct {
	root         string
	pollInterval time.Duration
}

// defaultPollInterval はイベントポーリングのデフォルト間隔
const defaultPollInterval = 100 * time.Millisecond

// NewLinuxBinding は新しいLinuxBindingを作成する
// pollInterval が 0 以下の場合はデフォルトのポーリング間隔を使用する
func NewLinuxBinding(pollInterval time.Duration) *LinuxBinding {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &LinuxBinding{
		root:         defaultSysfsRoot,
		pollInterval: pollInterval,
	}
}

// sysfsHandle はLinuxBindingのルートハンドル
type sysfsHandle struct {
	root string

	// 前回のスキャンで確認したデバイスパスの集合
	known map[string]struct{}
}

// sysfsDevice はsysfsから読み取った1台のデバイス情報
type sysfsDevice struct {
	path string
	name string
}

// Path はデバイスパスを返す
func (d *sysfsDevice) Path() string {
	return d.path
}

// Name はデバイスの表示名を返す
func (d *sysfsDevice) Name() string {
	return d.name
}

// Init はsysfsのデバイスディレクトリを確認しルートハンドルを返す
func (b *LinuxBinding) Init() (Handle, error) {
	info, err := os.Stat(b.root)
	if err != nil {
		return nil, fmt.Errorf("デバイスディレクトリにアクセスできません: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("デバイスディレクトリではありません: %s", b.root)
	}

	return &sysfsHandle{
		root:  b.root,
		known: make(map[string]struct{}),
	}, nil
}

// Enumerate は現在接続されているデバイス一覧を返す
func (b *LinuxBinding) Enumerate(h Handle) ([]RawDevice, error) {
	sh, ok := h.(*sysfsHandle)
	if !ok {
		return nil, fmt.Errorf("無効なハンドルです")
	}

	devices, err := b.scan(sh.root)
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		sh.known[d.Path()] = struct{}{}
	}

	return devices, nil
}

// scan はsysfsのデバイスディレクトリを読み取り、デバイス一覧を構築する
func (b *LinuxBinding) scan(root string) ([]RawDevice, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	var devices []RawDevice
	for _, entry := range entries {
		// "1-2:1.0" のようなインターフェースエントリーはデバイス本体ではない
		if strings.Contains(entry.Name(), ":") {
			continue
		}

		path := filepath.Join(root, entry.Name())
		devices = append(devices, &sysfsDevice{
			path: path,
			name: b.deviceName(path, entry.Name()),
		})
	}

	return devices, nil
}

// deviceName はsysfs属性からデバイスの表示名を組み立てる
func (b *LinuxBinding) deviceName(path, fallback string) string {
	// product 属性があればそれを優先する
	if product := readSysfsAttr(filepath.Join(path, "product")); product != "" {
		return product
	}

	// フォールバック: ベンダー/プロダクトIDから生成
	vendor := readSysfsAttr(filepath.Join(path, "idVendor"))
	productID := readSysfsAttr(filepath.Join(path, "idProduct"))
	if vendor != "" && productID != "" {
		return fmt.Sprintf("USBデバイス %s:%s", vendor, productID)
	}

	return fallback
}

// readSysfsAttr はsysfs属性ファイルを読み取り、空白を除去して返す
func readSysfsAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// FreeDeviceList はデバイス一覧を解放する
// sysfs実装ではネイティブ資源を持たないため、deep指定時にエントリーを無効化するのみ
func (b *LinuxBinding) FreeDeviceList(devices []RawDevice, deep bool) {
	if !deep {
		return
	}
	for i := range devices {
		devices[i] = nil
	}
}

// DrainEvents は保留中のイベントを処理する
//
// デバイスディレクトリを再スキャンして接続・切断の差分を記録したあと、
// 次のポーリングまで停止フラグを確認しながら待機する
func (b *LinuxBinding) DrainEvents(h Handle, stop *atomic.Bool) error {
	sh, ok := h.(*sysfsHandle)
	if !ok {
		return fmt.Errorf("無効なハンドルです")
	}

	devices, err := b.scan(sh.root)
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		current[d.Path()] = struct{}{}
		if _, seen := sh.known[d.Path()]; !seen {
			log.Printf("デバイスが接続されました: %s (%s)", d.Name(), d.Path())
		}
	}
	for path := range sh.known {
		if _, exists := current[path]; !exists {
			log.Printf("デバイスが切断されました: %s", path)
		}
	}
	sh.known = current

	// 停止フラグを確認しながら次のポーリングまで待つ
	deadline := time.Now().Add(b.pollInterval)
	for time.Now().Before(deadline) {
		if stop.Load() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}

	return nil
}

// Shutdown はルートハンドルを解放する
func (b *LinuxBinding) Shutdown(h Handle) {
	if sh, ok := h.(*sysfsHandle); ok {
		sh.known = nil
	}
}

// MockBinding はテスト用のモックBinding実装
type MockBinding struct {
	// InitFailures は最初の何回のInitを失敗させるかを指定する
	InitFailures int

	devices []RawDevice

	initCalls     int
	enumCalls     int
	drainCalls    atomic.Int64
	shutdownCalls int
	freeCalls     int
	freeDeep      bool
}

// mockDevice はテスト用のデバイス参照
type mockDevice struct {
	path string
	name string
}

// Path はデバイスパスを返す
func (d *mockDevice) Path() string { return d.path }

// Name はデバイスの表示名を返す
func (d *mockDevice) Name() string { return d.name }

// NewMockBinding は指定された名前のデバイスを持つMockBindingを作成する
func NewMockBinding(names ...string) *MockBinding {
	devices := make([]RawDevice, 0, len(names))
	for i, name := range names {
		devices = append(devices, &mockDevice{
			path: fmt.Sprintf("/mock/device%d", i),
			name: name,
		})
	}
	return &MockBinding{devices: devices}
}

// mockHandle はMockBindingのルートハンドル
type mockHandle struct{}

// Init はモックの初期化を行う
// InitFailures 回だけ失敗したあと成功する
func (m *MockBinding) Init() (Handle, error) {
	m.initCalls++
	if m.initCalls <= m.InitFailures {
		return nil, fmt.Errorf("モック初期化失敗 (%d 回目)", m.initCalls)
	}
	return &mockHandle{}, nil
}

// Enumerate はモックデバイス一覧を返す
func (m *MockBinding) Enumerate(_ Handle) ([]RawDevice, error) {
	m.enumCalls++
	return m.devices, nil
}

// FreeDeviceList は解放の呼び出しを記録する
func (m *MockBinding) FreeDeviceList(_ []RawDevice, deep bool) {
	m.freeCalls++
	m.freeDeep = deep
}

// DrainEvents は停止フラグが立つまで短い間隔で待機する
func (m *MockBinding) DrainEvents(_ Handle, stop *atomic.Bool) error {
	m.drainCalls.Add(1)
	for i := 0; i < 10; i++ {
		if stop.Load() {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// Shutdown はハンドル解放の呼び出しを記録する
func (m *MockBinding) Shutdown(_ Handle) {
	m.shutdownCalls++
}

// InitCalls はInitが呼ばれた回数を返す
func (m *MockBinding) InitCalls() int { return m.initCalls }

// DrainCalls はDrainEventsが呼ばれた回数を返す
func (m *MockBinding) DrainCalls() int64 { return m.drainCalls.Load() }

// ShutdownCalls はShutdownが呼ばれた回数を返す
func (m *MockBinding) ShutdownCalls() int { return m.shutdownCalls }

// FreeCalls はFreeDeviceListが呼ばれた回数とdeepフラグを返す
func (m *MockBinding) FreeCalls() (int, bool) { return m.freeCalls, m.freeDeep }
