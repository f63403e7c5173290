package apimodel

// TextMessage sets the custom message screen text
type TextMessage struct {
	Text string `json:"text"`
}

// Notification is shown over the current screen for Duration seconds
type Notification struct {
	Text     string `json:"text"`
	Duration int64  `json:"duration"`
}

type WifiCredentials struct {
	Ssid     string `json:"ssid"`
	Password string `json:"password"`
}

// AdminResponse reports the outcome of an administrative request
type AdminResponse struct {
	RequestId string `json:"request_id"`
	Action    string `json:"action"`
	Done      bool   `json:"done"`
	Error     string `json:"error,omitempty"`
}
