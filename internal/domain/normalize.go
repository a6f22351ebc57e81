package domain

import (
	"regexp"
	"strings"
)

// fieldTypePatterns validate a raw cell value against the target field type.
// A value that fails its pattern yields a validation finding; normalization
// happens separately at export time.
var fieldTypePatterns = map[FieldType]*regexp.Regexp{
	FieldTypeEmail:    regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
	FieldTypePhone:    regexp.MustCompile(`^[\d\s\-\+\(\)]{7,20}$`),
	FieldTypeURL:      regexp.MustCompile(`^(https?://)?[\w\-]+(\.[\w\-]+)+(/.*)?$`),
	FieldTypeNumber:   regexp.MustCompile(`^-?[\d,]+(\.\d+)?$`),
	FieldTypeDate:     regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	FieldTypeDatetime: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?$`),
	FieldTypeBoolean:  regexp.MustCompile(`(?i)^(true|false)$`),
}

// MatchesFieldType reports whether a non-empty value conforms to the field
// type. Types without a pattern accept anything.
func MatchesFieldType(fieldType FieldType, value string) bool {
	pattern, ok := fieldTypePatterns[fieldType]
	if !ok {
		return true
	}
	return pattern.MatchString(strings.TrimSpace(value))
}

var nonDigits = regexp.MustCompile(`[^\d\+]`)

// NormalizeValue canonicalizes a cell value for export according to the
// target field type. 원본 의미는 보존하고 표기만 통일한다.
func NormalizeValue(fieldType FieldType, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return v
	}

	switch fieldType {
	case FieldTypeEmail:
		return strings.ToLower(v)
	case FieldTypePhone:
		return nonDigits.ReplaceAllString(v, "")
	case FieldTypeURL:
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return "https://" + v
		}
		return v
	case FieldTypeNumber:
		return strings.ReplaceAll(v, ",", "")
	case FieldTypeDate:
		// datetime이 들어와도 날짜 부분만 남긴다
		if len(v) > 10 {
			return v[:10]
		}
		return v
	default:
		return v
	}
}

// InferFieldType guesses a field type from sample values. Text wins unless
// every non-empty sample agrees on a more specific type.
func InferFieldType(samples []string) FieldType {
	// 구체적인 타입부터 검사한다. url 패턴이 "1.5" 같은 소수도 받기 때문에
	// number가 url보다 먼저 와야 한다.
	candidates := []FieldType{
		FieldTypeEmail, FieldTypeDate, FieldTypeDatetime,
		FieldTypeNumber, FieldTypePhone, FieldTypeURL,
	}

	checked := 0
	for _, t := range candidates {
		matchesAll := true
		checked = 0
		for _, s := range samples {
			if IsEmptyValue(s) {
				continue
			}
			checked++
			if !MatchesFieldType(t, s) {
				matchesAll = false
				break
			}
		}
		if matchesAll && checked > 0 {
			return t
		}
	}
	return FieldTypeText
}
