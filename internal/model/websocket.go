package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the base message envelope
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage is pushed on every job progress update
type WSProgressMessage struct {
	Type     string   `json:"type"`
	JobID    string   `json:"job_id"`
	Stage    JobStage `json:"stage"`
	Progress float64  `json:"progress"`
	Done     *int     `json:"done,omitempty"`
	Total    *int     `json:"total,omitempty"`
	EtaS     *float64 `json:"eta_s,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// WSCompleteMessage is pushed when a job reaches success
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	JobID  string      `json:"job_id"`
	Result interface{} `json:"result,omitempty"`
}

// WSError carries an error code and message
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSErrorMessage is pushed when a job fails
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"job_id"`
	Error WSError `json:"error"`
}
