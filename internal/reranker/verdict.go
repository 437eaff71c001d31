package reranker

import (
	"errors"
	"regexp"
	"strconv"
)

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// PointwiseVerdict is the schema a single judgment must satisfy.
type PointwiseVerdict struct {
	Score *float64 `json:"score" validate:"required"`
}

// DecodeFreeform recovers a score from plain model text such as "8" or "Score: 7.5/10",
// taking the first number found.
func (v *PointwiseVerdict) DecodeFreeform(text string) error {
	match := numberPattern.FindString(text)
	if match == "" {
		return errors.New("no numeric score in response")
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return err
	}
	v.Score = &score
	return nil
}

// ListwiseItem is one entry of a listwise ranking. Index is 1-based.
type ListwiseItem struct {
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// ListwiseVerdict is the schema a listwise ranking must satisfy.
type ListwiseVerdict struct {
	QueryIntent string         `json:"query_intent" validate:"required"`
	Ranking     []ListwiseItem `json:"ranking" validate:"required"`
}
