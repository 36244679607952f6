package models

// Prediction signal sources, in blending priority order.
const (
	SourceCommunityReviews = "community_reviews"
	SourceMLPrediction     = "ml_prediction"
	SourceStatistics       = "statistics"
)

// PredictionBasis carries the raw data point counts behind a prediction,
// for UI transparency and vote-based validation.
type PredictionBasis struct {
	ReviewCount      int `json:"review_count"`
	SimilarUserCount int `json:"similar_user_count"`
	StatDataPoints   int `json:"stat_data_points"`
}

// PredictionResult is a confidence-bounded safety prediction for a location
// without direct reviews.
type PredictionResult struct {
	PredictedSafetyScore float64         `json:"predicted_safety_score"` // 0-5
	Confidence           float64         `json:"confidence"`
	PrimarySource        string          `json:"primary_source"`
	BasedOn              PredictionBasis `json:"based_on"`
}

// SimilarityScore measures demographic overlap with another user. Derived
// per request, never persisted.
type SimilarityScore struct {
	OtherUserID      string   `json:"other_user_id"`
	SimilarityScore  float64  `json:"similarity_score"` // 0-1
	SharedAttributes []string `json:"shared_attributes,omitempty"`
}
