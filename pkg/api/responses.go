package api

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Device struct {
	ID              string  `json:"id"`
	DeviceID        string  `json:"deviceId"`
	FirmwareVersion string  `json:"firmwareVersion"`
	BatteryPercent  int     `json:"batteryPercent"`
	Online          bool    `json:"online"`
	LastSeen        *string `json:"lastSeen"`
	PowerMode       string  `json:"powerMode"`
	TextSize        string  `json:"textSize"`
	Keyboard        string  `json:"keyboard"`
	ScreenTimeout   int     `json:"screenTimeout"`
	WifiSSID        *string `json:"wifiSsid,omitempty"`
	FreeStorage     *int64  `json:"freeStorage,omitempty"`
	FreeRAM         *int64  `json:"freeRam,omitempty"`
}

type DeviceActivity struct {
	LastAIQuery     *string `json:"last_ai_query"`
	LastFileSync    *string `json:"last_file_sync"`
	LastChatMessage *string `json:"last_chat_message"`
}

type BindResult struct {
	Status   string `json:"status"`
	DeviceID string `json:"device_id"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"` // DEVICE or WEB
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type Firmware struct {
	ID        string  `json:"id"`
	Version   string  `json:"version"`
	Notes     *string `json:"notes"`
	CreatedAt string  `json:"createdAt"`
}

// FirmwareStatus is the update page's view of the firmware catalogue.
type FirmwareStatus struct {
	Firmware        []Firmware `json:"firmware"`
	Latest          *Firmware  `json:"latest,omitempty"`
	CurrentVersion  string     `json:"current_version,omitempty"`
	UpdateAvailable bool       `json:"update_available"`
}

// SessionInfo is what the dashboard layout needs to render the header.
type SessionInfo struct {
	ID        string    `json:"session_id"`
	User      User      `json:"user"`
	DeviceID  string    `json:"device_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FetchStats struct {
	Date       string  `json:"date"`
	ProviderID string  `json:"provider"`
	Outcome    string  `json:"outcome"`
	Attempts   int     `json:"attempts"`
	AvgLatency float64 `json:"avg_latency_ms"`
}
