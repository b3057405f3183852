package server

import (
	"net/http"
	"time"

	"tsunagi/internal/transport"

	"github.com/gin-gonic/gin"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status          string     `json:"status"`
	Server          ServerInfo `json:"server"`
	Devices         int        `json:"devices"`
	ActiveConsumers int        `json:"active_consumers"`
	Timestamp       time.Time  `json:"timestamp"`
}

// ServerInfo はサーバーの基本情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DeviceInfo は1台のデバイス情報
type DeviceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// DevicesResponse はデバイス一覧のレスポンス
type DevicesResponse struct {
	Devices []DeviceInfo `json:"devices"`
}

// ErrorResponse はエラーレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth はヘルスチェックエンドポイントの実装
func (s *Server) handleHealth(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// handleStatus はシステム状態取得エンドポイントの実装
func (s *Server) handleStatus(c *gin.Context) {
	response := StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: s.config.Server.Host,
			Port: s.config.Server.Port,
		},
		Devices:         s.transport.DeviceCount(),
		ActiveConsumers: s.transport.ActiveConsumers(),
		Timestamp:       time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// handleDevices はデバイス一覧取得エンドポイントの実装
func (s *Server) handleDevices(c *gin.Context) {
	snapshot := s.transport.Devices()
	devices := make([]DeviceInfo, 0, len(snapshot))

	for _, d := range snapshot {
		devices = append(devices, deviceInfo(d))
	}

	c.JSON(http.StatusOK, DevicesResponse{Devices: devices})
}

// handleDevice は個別デバイス取得エンドポイントの実装
func (s *Server) handleDevice(c *gin.Context) {
	id := c.Param("id")

	for _, d := range s.transport.Devices() {
		if d.ID == id {
			c.JSON(http.StatusOK, deviceInfo(d))
			return
		}
	}

	errorResponse := ErrorResponse{
		Error:     "device_not_found",
		Message:   "指定されたデバイスが見つかりません",
		Timestamp: time.Now(),
	}
	c.JSON(http.StatusNotFound, errorResponse)
}

// deviceInfo はスナップショットのデバイスをレスポンス形式に変換する
func deviceInfo(d transport.Device) DeviceInfo {
	return DeviceInfo{
		ID:   d.ID,
		Name: d.Name,
		Path: d.Path,
	}
}
