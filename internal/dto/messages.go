package dto

// Message tags on the camera channel (inbound).
const (
	TypeOvershootResult = "overshoot_result"
	TypeForceProcess    = "force_process"
	TypeVideoFrame      = "video_frame"
)

// Message tags on the dispatcher channel (inbound).
const (
	TypeConfirm = "confirm"
	TypeReject  = "reject"
)

// Message tags broadcast to dispatchers (outbound).
const (
	TypeCameraConnected = "camera_connected"
	TypeCameraList      = "camera_list"
	TypeAlert           = "alert"
)

// CameraMessage is the envelope read from a camera connection. Fields
// beyond Type are populated depending on the tag; unknown tags are
// ignored by the handler.
type CameraMessage struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Snapshot    string `json:"snapshot,omitempty"`
	Frame       string `json:"frame,omitempty"`
}

// DispatcherMessage is the envelope read from a dispatcher connection.
type DispatcherMessage struct {
	Type         string `json:"type"`
	IncidentID   string `json:"incident_id,omitempty"`
	DispatcherID string `json:"dispatcher_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// CameraConnected announces a new camera to every dispatcher.
type CameraConnected struct {
	Type     string `json:"type"`
	CameraID string `json:"camera_id"`
}

// CameraList is sent once to a newly connected dispatcher.
type CameraList struct {
	Type    string   `json:"type"`
	Cameras []string `json:"cameras"`
}

// VideoFrameMessage forwards a raw camera frame to dispatchers.
type VideoFrameMessage struct {
	Type     string `json:"type"`
	CameraID string `json:"camera_id"`
	Frame    string `json:"frame"`
}

// AlertMessage wraps an alert for broadcast.
type AlertMessage struct {
	Type string `json:"type"`
	Data Alert  `json:"data"`
}
