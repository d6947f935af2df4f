// Package oddsmath converts between American odds, decimal odds, and implied
// probability. American +150 pays 150 on a 100 stake; American -150 requires
// a 150 stake to win 100. A price of 0 is not a valid American quote.
package oddsmath

import (
	"fmt"
	"math"

	"github.com/lineview/odds-aggregator/internal/models"
)

// ImpliedProbability converts an American price to its implied probability.
// +150 → 100/(150+100) = 0.4, -150 → 150/(150+100) = 0.6.
// The result is always in (0, 1) for a valid price.
func ImpliedProbability(price int) (float64, error) {
	if price == 0 {
		return 0, fmt.Errorf("%w: price cannot be 0", models.ErrInvalidPrice)
	}

	if price > 0 {
		return 100.0 / (float64(price) + 100.0), nil
	}

	return float64(-price) / (float64(-price) + 100.0), nil
}

// AmericanToDecimal converts an American price to decimal odds.
// +150 → 2.50, -150 → 1.67.
func AmericanToDecimal(price int) (float64, error) {
	if price == 0 {
		return 0, fmt.Errorf("%w: price cannot be 0", models.ErrInvalidPrice)
	}

	if price > 0 {
		return (float64(price) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-price)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to the nearest American price.
// 2.50 → +150, 1.67 → -149 (rounding).
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0, got %v", models.ErrInvalidPrice, dec)
	}

	if dec >= 2.0 {
		return int(math.Round((dec - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (dec - 1.0))), nil
}

// ProbabilityToAmerican converts a probability in (0, 1) to an American price.
func ProbabilityToAmerican(prob float64) (int, error) {
	if prob <= 0 || prob >= 1 {
		return 0, fmt.Errorf("%w: probability must be in (0, 1), got %v", models.ErrInvalidPrice, prob)
	}

	return DecimalToAmerican(1.0 / prob)
}
