package risk

// Recommendation is the advisory outcome derived from an aggregate score.
// It never decides an application on its own; officers remain free to
// override it in either direction.
type Recommendation string

const (
	RecommendApprove      Recommendation = "approve"
	RecommendManualReview Recommendation = "manual_review"
	RecommendReject       Recommendation = "reject"
)

// Classification thresholds on the aggregate 0..100 score.
const (
	approveMax = 30
	reviewMax  = 60
)

// Recommend maps an aggregate score onto its advisory band.
// Boundaries: 30 still approves, 60 still goes to review.
func Recommend(score int) Recommendation {
	switch {
	case score <= approveMax:
		return RecommendApprove
	case score <= reviewMax:
		return RecommendManualReview
	default:
		return RecommendReject
	}
}

func (r Recommendation) String() string {
	return string(r)
}
