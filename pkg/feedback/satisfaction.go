package feedback

import "time"

// Satisfaction weights.
const (
	currentWeight = 0.6
	recentWeight  = 0.4
	recentWindow  = 30 * 24 * time.Hour
	maxScore      = 5.0
)

// Satisfaction blends the current score with the prior scores of the last
// 30 days: 0.6*current + 0.4*recent, where both are normalized to [0, 1].
// Without recent prior feedback the result is the normalized current score.
func Satisfaction(current UserFeedback, prior []UserFeedback, now time.Time) float64 {
	cur := float64(current.Score) / maxScore

	cutoff := now.Add(-recentWindow)
	sum, n := 0, 0
	for _, f := range prior {
		if f.CreatedAt.After(cutoff) {
			sum += f.Score
			n++
		}
	}
	if n == 0 {
		return cur
	}

	recent := float64(sum) / (float64(n) * maxScore)
	return currentWeight*cur + recentWeight*recent
}
