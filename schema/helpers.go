package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitList splits a comma-separated property into trimmed, non-empty parts.
func SplitList(raw string) []string {
	var parts []string
	for p := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// SplitSlots splits a positional comma-separated property such as list_coef or
// list_AIs. An empty property yields nil; an empty slot inside it is an error,
// since dropping it would shift every later position.
func SplitSlots(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var parts []string
	for p := range strings.SplitSeq(raw, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			return nil, fmt.Errorf("slot %d of %q is empty", len(parts), raw)
		}
		parts = append(parts, trimmed)
	}
	return parts, nil
}

// JoinList is the inverse of SplitList.
func JoinList(parts []string) string {
	return strings.Join(parts, ",")
}

// ParseCoefficients decodes a list_coef property. An empty property yields nil.
func ParseCoefficients(raw string) ([]float64, error) {
	parts, err := SplitSlots(raw)
	if err != nil || len(parts) == 0 {
		return nil, err
	}
	coefs := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("coefficient %d (%q) is not a number: %w", i, p, err)
		}
		coefs = append(coefs, v)
	}
	return coefs, nil
}

// FormatCoefficients encodes a coefficient vector for storage.
func FormatCoefficients(coefs []float64) string {
	parts := make([]string, 0, len(coefs))
	for _, c := range coefs {
		parts = append(parts, strconv.FormatFloat(c, 'g', -1, 64))
	}
	return JoinList(parts)
}

// ParseFlag decodes a boolean property such as modif_crypted.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// FormatFlag encodes a boolean property.
func FormatFlag(v bool) string {
	return strconv.FormatBool(v)
}

// AnswerNodeID builds the composite id of an answer node.
func AnswerNodeID(user, questionID, form string) string {
	return fmt.Sprintf("%s-answer%s-%s", user, questionID, form)
}
