package transport

import (
	"github.com/google/uuid"
)

// Device はスナップショットに含まれる1台のデバイス情報
type Device struct {
	ID   string // デバイスの一意識別子
	Path string // デバイスパス
	Name string // デバイスの表示名

	raw RawDevice
}

// Raw は下位バインディングが返した生デバイス参照を返す
// スナップショットが解放された後に使用してはならない
func (d *Device) Raw() RawDevice {
	return d.raw
}

// Snapshot はコンテキスト生成時点のデバイス一覧を表す
// 生成後は不変であり、並び順はバインディングが返した順序をそのまま保持する
type Snapshot struct {
	devices []*Device
	raw     []RawDevice
}

// newSnapshot は生デバイス参照の一覧からスナップショットを作成する
func newSnapshot(raw []RawDevice) *Snapshot {
	devices := make([]*Device, 0, len(raw))
	for _, r := range raw {
		devices = append(devices, &Device{
			ID:   uuid.New().String(),
			Path: r.Path(),
			Name: r.Name(),
			raw:  r,
		})
	}

	return &Snapshot{
		devices: devices,
		raw:     raw,
	}
}

// Count はスナップショットに含まれるデバイス数を返す
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.devices)
}

// Device は指定されたインデックスのデバイスを取得する
// 範囲外の場合は (nil, false) を返す
func (s *Snapshot) Device(index int) (*Device, bool) {
	if s == nil || index < 0 || index >= len(s.devices) {
		return nil, false
	}
	return s.devices[index], true
}

// Devices はスナップショットに含まれる全デバイスのコピーを返す
func (s *Snapshot) Devices() []Device {
	if s == nil {
		return nil
	}

	result := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		result = append(result, *d)
	}
	return result
}

// release は解放対象の生デバイス一覧を返し、スナップショットを空にする
// 呼び出しは一度きりで、Context の破棄時に限る
func (s *Snapshot) release() []RawDevice {
	raw := s.raw
	s.raw = nil
	s.devices = nil
	return raw
}
