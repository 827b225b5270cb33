package services

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Feature names in the order the classifier was trained on. Never reorder.
const (
	FeatureJobRole          = "JobRole"
	FeatureDepartment       = "Department"
	FeatureWorkLifeBalance  = "WorkLifeBalance"
	FeatureJobSatisfaction  = "JobSatisfaction"
	FeatureStockOptionLevel = "StockOptionLevel"
)

var FeatureOrder = []string{
	FeatureJobRole,
	FeatureDepartment,
	FeatureWorkLifeBalance,
	FeatureJobSatisfaction,
	FeatureStockOptionLevel,
}

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

const (
	InsightSatisfaction = "Low job satisfaction is a primary driver of risk."
	InsightWorkLife     = "Poor work-life balance significantly increases attrition probability."
	InsightStock        = "Lack of stock options contributes to lower retention."
	InsightHealthy      = "Employee engagement metrics are healthy."
)

// Features is one employee record after integer coercion.
type Features struct {
	JobRole          int `json:"JobRole"`
	Department       int `json:"Department"`
	WorkLifeBalance  int `json:"WorkLifeBalance"`
	JobSatisfaction  int `json:"JobSatisfaction"`
	StockOptionLevel int `json:"StockOptionLevel"`
}

// Vector returns the classifier input row in FeatureOrder.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.JobRole),
		float64(f.Department),
		float64(f.WorkLifeBalance),
		float64(f.JobSatisfaction),
		float64(f.StockOptionLevel),
	}
}

// ParseFeatures coerces the five required fields of a decoded JSON object to
// integers. Numbers are truncated toward zero, booleans count as 0/1 and
// numeric strings may carry surrounding whitespace. Anything missing, null
// or non-numeric is a ValidationError naming the field.
func ParseFeatures(raw map[string]interface{}) (Features, error) {
	var values [5]int
	for i, name := range FeatureOrder {
		v, ok := raw[name]
		if !ok || v == nil {
			return Features{}, newValidationError(name, fmt.Errorf("%s is required", name))
		}
		n, err := coerceInt(v)
		if err != nil {
			return Features{}, newValidationError(name, fmt.Errorf("%s must be an integer: %w", name, err))
		}
		values[i] = n
	}

	return Features{
		JobRole:          values[0],
		Department:       values[1],
		WorkLifeBalance:  values[2],
		JobSatisfaction:  values[3],
		StockOptionLevel: values[4],
	}, nil
}

func coerceInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", val.String())
		}
		return truncate(f)
	case float64:
		return truncate(val)
	case int:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid literal %q", val)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func truncate(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("number %v out of range", f)
	}
	return int(math.Trunc(f)), nil
}

// Heuristic scores an employee without a trained classifier. Low work-life
// balance adds 30, low satisfaction 40 and no stock options 20; the result
// plus 10 is clamped to [5, 95] and a probability above 50 predicts leaving.
func Heuristic(f Features) (prediction int, probability float64) {
	score := 0
	if f.WorkLifeBalance <= 2 {
		score += 30
	}
	if f.JobSatisfaction <= 2 {
		score += 40
	}
	if f.StockOptionLevel == 0 {
		score += 20
	}

	probability = float64(min(max(score+10, 5), 95))
	if probability > 50 {
		prediction = 1
	}
	return prediction, probability
}

// RiskTier buckets a probability percentage: [0,30) Low, [30,70) Medium, [70,100] High.
func RiskTier(probability float64) string {
	switch {
	case probability < 30:
		return RiskLow
	case probability < 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Contributions returns the mock per-feature contribution scores. JobRole and
// Department are drawn from uniform(), scaled to [-5, 5); the rest are fixed
// by threshold.
func Contributions(f Features, uniform func() float64) map[string]float64 {
	c := map[string]float64{
		FeatureJobRole:          uniform()*10 - 5,
		FeatureDepartment:       uniform()*10 - 5,
		FeatureWorkLifeBalance:  15,
		FeatureJobSatisfaction:  20,
		FeatureStockOptionLevel: 10,
	}
	if f.WorkLifeBalance > 2 {
		c[FeatureWorkLifeBalance] = -10
	}
	if f.JobSatisfaction > 2 {
		c[FeatureJobSatisfaction] = -15
	}
	if f.StockOptionLevel > 0 {
		c[FeatureStockOptionLevel] = -5
	}
	return c
}

// Insights lists the risk drivers present in f. The healthy message is only
// added when nothing else matched and the prediction is "stay"; a "leave"
// prediction with no drivers yields an empty list.
func Insights(f Features, prediction int) []string {
	var insights []string
	if f.JobSatisfaction <= 2 {
		insights = append(insights, InsightSatisfaction)
	}
	if f.WorkLifeBalance <= 2 {
		insights = append(insights, InsightWorkLife)
	}
	if f.StockOptionLevel == 0 {
		insights = append(insights, InsightStock)
	}
	if len(insights) == 0 && prediction == 0 {
		insights = append(insights, InsightHealthy)
	}
	return insights
}

// RoundProbability rounds to one decimal place, ties to even. The exact binary
// value of p is rounded, not its shortest decimal form, so 0.35 (stored just
// below) becomes 0.3.
func RoundProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	exact := new(big.Rat).SetFloat64(p)
	return decimal.NewFromBigRat(exact, 30).RoundBank(1).InexactFloat64()
}
