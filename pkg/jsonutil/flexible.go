package jsonutil

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LLM replies are loosely typed: booleans arrive as "true", confidences as
// "0.8", single suggestions as a bare string instead of a list. The Flexible*
// types absorb those shapes so callers decode once and move on.

// FlexibleBool decodes a JSON bool, a quoted bool ("true", "yes"), or a
// number (non-zero is true). Null and anything unrecognized decode to false.
type FlexibleBool bool

func (b *FlexibleBool) UnmarshalJSON(raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		*b = false
		return nil
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		*b = FlexibleBool(boolVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		switch strings.ToLower(strings.TrimSpace(strVal)) {
		case "true", "yes", "1":
			*b = true
		default:
			*b = false
		}
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		*b = numVal != 0
		return nil
	}

	*b = false
	return nil
}

// FlexibleFloat decodes a JSON number or a quoted number. "85%" style
// suffixes are tolerated. Null and unparsable values decode to zero.
type FlexibleFloat float64

func (f *FlexibleFloat) UnmarshalJSON(raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		*f = 0
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		*f = FlexibleFloat(numVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strVal), "%"))
		if parsed, err := strconv.ParseFloat(strVal, 64); err == nil {
			*f = FlexibleFloat(parsed)
			return nil
		}
	}

	*f = 0
	return nil
}

// FlexibleStringSlice decodes a JSON array of strings, a single string, or
// an array of mixed scalars. Null decodes to nil.
type FlexibleStringSlice []string

func (s *FlexibleStringSlice) UnmarshalJSON(raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		*s = nil
		return nil
	}

	var strSlice []string
	if err := json.Unmarshal(raw, &strSlice); err == nil {
		*s = strSlice
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		*s = []string{single}
		return nil
	}

	var anySlice []json.RawMessage
	if err := json.Unmarshal(raw, &anySlice); err == nil {
		out := make([]string, 0, len(anySlice))
		for _, item := range anySlice {
			out = append(out, FlexibleStringValue(item))
		}
		*s = out
		return nil
	}

	*s = nil
	return nil
}

// FlexibleStringValue converts a json.RawMessage to a string, handling cases
// where LLMs return numbers or booleans instead of strings. Returns empty
// string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}
