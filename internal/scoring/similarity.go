package scoring

import (
	"sort"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// UserAttributes is a user's self-reported demographic attribute map
// (type -> value), e.g. {"gender": "female", "lgbtq": "yes"}.
type UserAttributes map[string]string

// Similarity computes the demographic overlap between two users as the
// fraction of the requesting user's attributes the other user shares.
// Recomputed per request; never persisted as a relationship.
func Similarity(userID string, user, other UserAttributes) models.SimilarityScore {
	score := models.SimilarityScore{OtherUserID: userID}
	if len(user) == 0 {
		return score
	}

	for k, v := range user {
		if other[k] == v {
			score.SharedAttributes = append(score.SharedAttributes, k)
		}
	}
	sort.Strings(score.SharedAttributes)

	score.SimilarityScore = float64(len(score.SharedAttributes)) / float64(len(user))
	return score
}
