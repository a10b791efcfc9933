package extract

import (
	"math"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Memory metric key names.
const (
	KeyIncorrectFolderAttempts = "incorrect_folder_attempts"
	KeyRepeatedAccessCount     = "repeated_access_count"
)

// Memory scores the memory domain from file-access navigation: changing
// folders mid-sequence and revisiting folders both count against the
// score, normalized by the total number of events in the window.
func Memory(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyIncorrectFolderAttempts: 0,
		KeyRepeatedAccessCount:     0,
		KeyMemoryScore:             0,
	}

	var sequence []string
	for _, e := range events {
		if e.Type != model.EventFileAccess {
			continue
		}
		sequence = append(sequence, e.Path)
		if len(sequence) > 1 && sequence[len(sequence)-1] != sequence[len(sequence)-2] {
			metrics[KeyIncorrectFolderAttempts]++
		}
	}

	seen := make(map[string]int, len(sequence))
	for _, path := range sequence {
		seen[path]++
		if seen[path] > 1 {
			metrics[KeyRepeatedAccessCount]++
		}
	}

	if total := float64(len(events)); total > 0 {
		errorRatio := (metrics[KeyIncorrectFolderAttempts] + metrics[KeyRepeatedAccessCount]) / total
		metrics[KeyMemoryScore] = math.Max(0, 1-errorRatio)
	}
	return metrics
}
