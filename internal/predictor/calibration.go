package predictor

import (
	"math"
)

// eceBins is the number of equal-width probability bins used for ECE.
const eceBins = 10

// ExpectedCalibrationError bins home-win probabilities into equal-width
// buckets and averages |mean(p) - mean(y)| weighted by bucket size.
func ExpectedCalibrationError(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sumP, sumY [eceBins]float64
	var count [eceBins]int
	for i, p := range probs {
		b := int(p * eceBins)
		if b >= eceBins {
			b = eceBins - 1
		}
		if b < 0 {
			b = 0
		}
		sumP[b] += p
		sumY[b] += labels[i]
		count[b]++
	}
	var ece float64
	n := float64(len(probs))
	for b := 0; b < eceBins; b++ {
		if count[b] == 0 {
			continue
		}
		c := float64(count[b])
		ece += c / n * math.Abs(sumP[b]/c-sumY[b]/c)
	}
	return ece
}

// LogLoss is the mean negative log-likelihood, with probabilities clipped
// away from 0 and 1.
func LogLoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	const eps = 1e-15
	var sum float64
	for i, p := range probs {
		p = clamp(p, eps, 1-eps)
		if labels[i] > 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}

// BrierScore is the mean squared error of the probabilities.
func BrierScore(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i, p := range probs {
		d := p - labels[i]
		sum += d * d
	}
	return sum / float64(len(probs))
}

// Accuracy is the share of rows where p >= 0.5 matches the label.
func Accuracy(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		if (p >= 0.5) == (labels[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// ApplyTemperature scales the distance from 0.5 by t.
func ApplyTemperature(p, t float64) float64 {
	return 0.5 + (p-0.5)*t
}

// TuneTemperature returns the grid temperature with the lowest ECE on the
// given probabilities, preferring values closer to 1 on ties, along with the
// ECE it achieves.
func TuneTemperature(probs, labels, grid []float64) (float64, float64) {
	best, bestECE := 1.0, ExpectedCalibrationError(probs, labels)
	scaled := make([]float64, len(probs))
	for _, t := range grid {
		for i, p := range probs {
			scaled[i] = ApplyTemperature(p, t)
		}
		ece := ExpectedCalibrationError(scaled, labels)
		switch {
		case ece < bestECE-1e-12:
			best, bestECE = t, ece
		case math.Abs(ece-bestECE) <= 1e-12 && math.Abs(t-1) < math.Abs(best-1):
			best = t
		}
	}
	return best, bestECE
}

// HomeShift returns the additive shift that moves the mean probability of
// non-neutral games to target, clamped to [-limit, limit].
func HomeShift(target float64, probs []float64, neutral []bool, limit float64) float64 {
	var sum float64
	n := 0
	for i, p := range probs {
		if neutral[i] {
			continue
		}
		sum += p
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(target-sum/float64(n), -limit, limit)
}

// ApplyHomeShift adds shift for games with a home team, keeping p in [0, 1].
func ApplyHomeShift(p, shift float64, neutral bool) float64 {
	if neutral {
		return p
	}
	return clamp(p+shift, 0, 1)
}

// Cap limits confidence to limit on either side of 0.5.
func Cap(p, limit float64) float64 {
	return clamp(p, 1-limit, limit)
}

// EarlySeason pulls p toward 0.5 in proportion to how few games the less
// experienced team has played.
func EarlySeason(p float64, gamesPlayed, threshold int) float64 {
	if threshold <= 0 || gamesPlayed >= threshold {
		return p
	}
	return 0.5 + (p-0.5)*float64(max(gamesPlayed, 0))/float64(threshold)
}
