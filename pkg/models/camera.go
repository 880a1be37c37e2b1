package models

// CameraListResponse is the body returned by GET /v1/cameras.
type CameraListResponse struct {
	Cameras []Camera `json:"cameras"`
}

// Camera is a single discovered camera as reported by the fleet server.
type Camera struct {
	Hostname   string `json:"hostname"`
	IP         string `json:"ip"` // address pan commands are routed to
	StreamPath string `json:"stream_path"`
}
