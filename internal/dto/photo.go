package dto

import "github.com/glowtrack/glowtrack-api/internal/models"

// UpdatePhotoRequest carries the mutable photo fields for PATCH requests.
type UpdatePhotoRequest struct {
	URI          *string              `json:"uri"`
	LightQuality *models.LightQuality `json:"light_quality"`
	FaceDetected *bool                `json:"face_detected"`
	AnalysisID   *string              `json:"analysis_id"`
}

// ToUpdate converts the request into the store's update shape.
func (r UpdatePhotoRequest) ToUpdate() models.PhotoUpdate {
	return models.PhotoUpdate{
		URI:          r.URI,
		LightQuality: r.LightQuality,
		FaceDetected: r.FaceDetected,
		AnalysisID:   r.AnalysisID,
	}
}

// SignedURLResponse returns a time-limited artifact download link.
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
