package simulator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"quizmon-client/internal/domain"
)

// score checks a raw answer payload against the question's key. sentOrder
// only matters for REORDER: it maps positions in the presented list back to
// authored positions.
func score(q ContentQuestion, sentOrder []int, raw json.RawMessage) (bool, error) {
	switch q.Type {
	case domain.TypeButtons:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return false, fmt.Errorf("buttons answer: %w", err)
		}
		if idx < 0 || idx >= len(q.Options) {
			return false, fmt.Errorf("buttons answer %d out of range", idx)
		}
		return q.Options[idx].IsCorrect, nil

	case domain.TypeCheckboxes:
		var picks []bool
		if err := json.Unmarshal(raw, &picks); err != nil {
			return false, fmt.Errorf("checkboxes answer: %w", err)
		}
		if len(picks) != len(q.Options) {
			return false, fmt.Errorf("checkboxes answer has %d entries, want %d", len(picks), len(q.Options))
		}
		for i, opt := range q.Options {
			if picks[i] != opt.IsCorrect {
				return false, nil
			}
		}
		return true, nil

	case domain.TypeRange:
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			return false, fmt.Errorf("range answer: %w", err)
		}
		if q.Range == nil {
			return false, fmt.Errorf("range question %s has no key", q.ID)
		}
		return math.Abs(value-q.Range.CorrectValue) <= q.Range.Tolerance, nil

	case domain.TypeReorder:
		var order []int
		if err := json.Unmarshal(raw, &order); err != nil {
			return false, fmt.Errorf("reorder answer: %w", err)
		}
		if len(order) != len(sentOrder) {
			return false, nil
		}
		for finalPos, sentPos := range order {
			if sentPos < 0 || sentPos >= len(sentOrder) {
				return false, fmt.Errorf("reorder answer references item %d", sentPos)
			}
			if sentOrder[sentPos] != finalPos {
				return false, nil
			}
		}
		return true, nil

	case domain.TypeTypeAnswer:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return false, fmt.Errorf("typeanswer answer: %w", err)
		}
		return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(q.CorrectAnswer)), nil

	case domain.TypeLocation:
		var point domain.Location
		if err := json.Unmarshal(raw, &point); err != nil {
			return false, fmt.Errorf("location answer: %w", err)
		}
		if q.Location == nil {
			return false, fmt.Errorf("location question %s has no key", q.ID)
		}
		dist := haversineKm(point.Lat, point.Lon, q.Location.Lat, q.Location.Lon)
		radius := q.Location.RadiusKm
		if radius <= 0 {
			radius = 100
		}
		return dist <= radius, nil
	}
	return false, fmt.Errorf("cannot score question type %q", q.Type)
}

// points awards the score the original UI displays during play:
// remaining/total of 1000, only on a correct answer.
func points(correct bool, remaining, total int) int {
	if !correct || total <= 0 {
		return 0
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining * 1000 / total
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
