package extract

import (
	"math"
	"unicode"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Language metric key names.
const (
	KeyTypingSpeedWPM          = "typing_speed_wpm"
	KeyErrorCorrectionRate     = "error_correction_rate"
	KeyVocabularyComplexity    = "vocabulary_complexity"
	keyBackspace               = "backspace"
	keyDelete                  = "delete"
	charsPerWord               = 5.0
	maxWPM                     = 60.0
	vocabularyLengthNormalizer = 10.0
)

// Language scores the language domain from keyboard activity: words per
// minute, correction rate and the mean length of distinct typed words.
func Language(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyTypingSpeedWPM:       0,
		KeyErrorCorrectionRate:  0,
		KeyVocabularyComplexity: 0,
		KeyLanguageScore:        0,
	}

	var typing []model.RawEvent
	for _, e := range events {
		if e.Type == model.EventKeyboard {
			typing = append(typing, e)
		}
	}

	if len(typing) > 0 {
		span := typing[len(typing)-1].Timestamp.Sub(typing[0].Timestamp).Seconds()
		chars := float64(len(typing))
		if span > 0 {
			metrics[KeyTypingSpeedWPM] = (chars / charsPerWord) / (span / 60)
		}
		var errors float64
		for _, e := range typing {
			if e.Key == keyBackspace {
				errors++
			}
		}
		metrics[KeyErrorCorrectionRate] = errors / chars
	}

	if lengths := wordLengths(typing); len(lengths) > 0 {
		var sum float64
		for _, l := range lengths {
			sum += float64(l)
		}
		metrics[KeyVocabularyComplexity] = sum / float64(len(lengths)) / vocabularyLengthNormalizer
	}

	metrics[KeyLanguageScore] = (math.Min(metrics[KeyTypingSpeedWPM]/maxWPM, 1) +
		(1 - metrics[KeyErrorCorrectionRate]) +
		metrics[KeyVocabularyComplexity]) / 3
	return metrics
}

// wordLengths reconstructs distinct words from key-down events, split on
// space and enter. Backspace trims the word in progress.
func wordLengths(typing []model.RawEvent) []int {
	words := make(map[string]struct{})
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words[string(current)] = struct{}{}
			current = current[:0]
		}
	}
	for _, e := range typing {
		if e.KeyAction != model.KeyDown {
			continue
		}
		switch e.Key {
		case "space", "enter":
			flush()
		case keyBackspace, keyDelete:
			if len(current) > 0 {
				current = current[:len(current)-1]
			}
		default:
			r := []rune(e.Key)
			if len(r) == 1 && unicode.IsLetter(r[0]) {
				current = append(current, r[0])
			} else {
				flush()
			}
		}
	}
	flush()

	lengths := make([]int, 0, len(words))
	for w := range words {
		lengths = append(lengths, len([]rune(w)))
	}
	return lengths
}
