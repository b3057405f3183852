package transport

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// writeSysfsDevice はテスト用のsysfsデバイスエントリーを作成する
func writeSysfsDevice(t *testing.T, root, name string, attrs map[string]string) {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("デバイスディレクトリの作成に失敗: %v", err)
	}
	for attr, value := range attrs {
		if err := os.WriteFile(filepath.Join(dir, attr), []byte(value+"\n"), 0o644); err != nil {
			t.Fatalf("属性ファイルの作成に失敗: %v", err)
		}
	}
}

func TestNewLinuxBinding_PollInterval(t *testing.T) {
	// 設定されたポーリング間隔がそのまま使われる
	b := NewLinuxBinding(25 * time.Millisecond)
	if b.pollInterval != 25*time.Millisecond {
		t.Errorf("Expected poll interval 25ms, got %v", b.pollInterval)
	}

	// 0以下の場合はデフォルト値にフォールバックする
	b = NewLinuxBinding(0)
	if b.pollInterval != defaultPollInterval {
		t.Errorf("Expected default poll interval %v, got %v", defaultPollInterval, b.pollInterval)
	}
}

func TestLinuxBinding_DrainEventsHonorsPollInterval(t *testing.T) {
	root := t.TempDir()
	b := &LinuxBinding{root: root, pollInterval: 30 * time.Millisecond}

	h, err := b.Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer b.Shutdown(h)

	// 停止フラグが立っていなければ、ポーリング間隔の満了まで待機する
	var stop atomic.Bool

	start := time.Now()
	if err := b.DrainEvents(h, &stop); err != nil {
		t.Fatalf("DrainEvents failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected drain to wait for the poll interval, returned after %v", elapsed)
	}
}

func TestLinuxBinding_InitFailure(t *testing.T) {
	b := &LinuxBinding{
		root:         "/nonexistent/sysfs/devices",
		pollInterval: 10 * time.Millisecond,
	}

	if _, err := b.Init(); err == nil {
		t.Fatal("Expected init to fail for nonexistent root")
	}
}

func TestLinuxBinding_Enumerate(t *testing.T) {
	root := t.TempDir()

	// デバイス本体とインターフェースエントリーを混在させる
	writeSysfsDevice(t, root, "1-1", map[string]string{
		"product":   "USB Camera",
		"idVendor":  "046d",
		"idProduct": "0825",
	})
	writeSysfsDevice(t, root, "1-1:1.0", nil)
	writeSysfsDevice(t, root, "2-3", map[string]string{
		"idVendor":  "8086",
		"idProduct": "0b3a",
	})

	b := &LinuxBinding{root: root, pollInterval: 10 * time.Millisecond}

	h, err := b.Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer b.Shutdown(h)

	devices, err := b.Enumerate(h)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	// インターフェースエントリー（"1-1:1.0"）は除外される
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}

	// product属性があればそれを表示名にする
	byPath := make(map[string]RawDevice)
	for _, d := range devices {
		byPath[filepath.Base(d.Path())] = d
	}

	if d, ok := byPath["1-1"]; !ok || d.Name() != "USB Camera" {
		t.Errorf("Expected device 1-1 named from product attribute, got %+v", d)
	}

	// product属性がなければベンダー/プロダクトIDから生成する
	if d, ok := byPath["2-3"]; !ok || d.Name() != "USBデバイス 8086:0b3a" {
		t.Errorf("Expected device 2-3 named from vendor/product IDs, got %+v", d)
	}
}

func TestLinuxBinding_DrainEventsDetectsChanges(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "1-1", map[string]string{"product": "USB Camera"})

	b := &LinuxBinding{root: root, pollInterval: 10 * time.Millisecond}

	h, err := b.Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sh := h.(*sysfsHandle)

	if _, err := b.Enumerate(h); err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(sh.known) != 1 {
		t.Fatalf("Expected 1 known device after enumeration, got %d", len(sh.known))
	}

	// 新しいデバイスの接続を検出する
	writeSysfsDevice(t, root, "2-1", map[string]string{"product": "Depth Module"})

	var stop atomic.Bool
	stop.Store(true) // スキャン後すぐに戻す
	if err := b.DrainEvents(h, &stop); err != nil {
		t.Fatalf("DrainEvents failed: %v", err)
	}
	if len(sh.known) != 2 {
		t.Errorf("Expected 2 known devices after attach, got %d", len(sh.known))
	}

	// デバイスの切断を検出する
	if err := os.RemoveAll(filepath.Join(root, "1-1")); err != nil {
		t.Fatalf("デバイスディレクトリの削除に失敗: %v", err)
	}
	if err := b.DrainEvents(h, &stop); err != nil {
		t.Fatalf("DrainEvents failed: %v", err)
	}
	if len(sh.known) != 1 {
		t.Errorf("Expected 1 known device after detach, got %d", len(sh.known))
	}

	b.Shutdown(h)
}

func TestLinuxBinding_DrainEventsObservesStopFlag(t *testing.T) {
	root := t.TempDir()
	b := &LinuxBinding{root: root, pollInterval: time.Second}

	h, err := b.Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer b.Shutdown(h)

	// 停止フラグが立っていれば、ポーリング間隔の満了を待たずに戻る
	var stop atomic.Bool
	stop.Store(true)

	start := time.Now()
	if err := b.DrainEvents(h, &stop); err != nil {
		t.Fatalf("DrainEvents failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected drain to return promptly on stop, took %v", elapsed)
	}
}

func TestLinuxBinding_WithContext(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "1-1", map[string]string{"product": "USB Camera"})
	writeSysfsDevice(t, root, "1-2", map[string]string{"product": "Depth Module"})

	b := &LinuxBinding{root: root, pollInterval: 5 * time.Millisecond}

	// 実バインディングでもコンテキストのライフサイクルが成立する
	c := NewContext(b, testSettings())
	if c.DeviceCount() != 2 {
		t.Fatalf("Expected 2 devices, got %d", c.DeviceCount())
	}

	c.StartEventHandler()
	time.Sleep(20 * time.Millisecond)
	c.StopEventHandler()

	waitPumpStopped(t, c)
	c.Close()
}
