package signal

import (
	"math"

	"github.com/toriphy/cta-engine/pkg/errors"
)

// WeightedOpenRatio computes the volume-weighted open-interest change ratio
// over the sub-bars of one composite bar:
//
//	mean_i( sqrt(v_i)/sum_j(sqrt(v_j)) * (oi_i - oi_{i-1})/v_i )
//
// subOpenInterests must hold exactly one more element than subVolumes: the
// leading element is the open-interest snapshot from before the window.
// Zero-volume sub-bars contribute nothing; their delta has no volume to
// attribute it to. A window with no tradable volume at all is unavailable.
func WeightedOpenRatio(subVolumes, subOpenInterests []int64) (float64, error) {
	if len(subVolumes) == 0 {
		return 0, errors.New(errors.ErrCodeValueNotAvailable, "composite bar has no sub-bar samples")
	}

	if len(subOpenInterests) != len(subVolumes)+1 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"expected %d open-interest samples, got %d", len(subVolumes)+1, len(subOpenInterests))
	}

	sqrtSum := 0.0
	for _, v := range subVolumes {
		sqrtSum += math.Sqrt(float64(v))
	}

	if sqrtSum == 0 {
		return 0, errors.New(errors.ErrCodeValueNotAvailable, "composite bar has zero total volume")
	}

	sum := 0.0

	for i, v := range subVolumes {
		if v == 0 {
			continue
		}

		weight := math.Sqrt(float64(v)) / sqrtSum
		delta := float64(subOpenInterests[i+1] - subOpenInterests[i])
		sum += weight * delta / float64(v)
	}

	ratio := sum / float64(len(subVolumes))
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, errors.New(errors.ErrCodeValueNotAvailable, "weighted open ratio is not finite")
	}

	return ratio, nil
}
