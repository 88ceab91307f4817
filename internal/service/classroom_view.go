package service

import (
	"math"
	"strings"

	"github.com/campushub/campus-api/internal/models"
)

// FilterClassrooms narrows a room snapshot by occupancy status and a
// case-insensitive substring match on name or building. The input order is
// preserved and the input slice is never mutated.
func FilterClassrooms(rooms []models.Classroom, filter models.ClassroomFilter) []models.Classroom {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Classroom, 0, len(rooms))
	for _, room := range rooms {
		switch filter.Status {
		case models.FilterFree:
			if room.Status != models.ClassroomFree {
				continue
			}
		case models.FilterOccupied:
			if room.Status != models.ClassroomOccupied {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(room.Name), search) &&
			!strings.Contains(strings.ToLower(room.Building), search) {
			continue
		}
		out = append(out, room)
	}
	return out
}

// Summarize computes availability counts over the full snapshot. The
// percentage is rounded to the nearest integer and is zero for an empty
// campus rather than a division error.
func Summarize(rooms []models.Classroom) models.ClassroomSummary {
	summary := models.ClassroomSummary{Total: len(rooms)}
	for _, room := range rooms {
		if room.Status == models.ClassroomFree {
			summary.Free++
		} else {
			summary.Occupied++
		}
	}
	if summary.Total > 0 {
		summary.AvailabilityPercent = int(math.Round(float64(summary.Free) / float64(summary.Total) * 100))
	}
	return summary
}
