package psacert

import (
	"fmt"
	"strconv"
)

// Card is the canonical record produced from a PSA cert lookup. Image URLs
// stay nil when the imagery endpoint has nothing for the cert.
type Card struct {
	CertNumber      string  `json:"certNumber"`
	CardName        string  `json:"cardName"`
	Grade           string  `json:"grade"`
	Variety         string  `json:"variety"`
	Year            string  `json:"year"`
	Brand           string  `json:"brand"`
	Category        string  `json:"category"`
	Sport           string  `json:"sport"`
	Subject         string  `json:"subject"`
	SpecNotes       string  `json:"specNotes"`
	TotalPopulation int     `json:"totalPopulation"`
	PopHigherGrade  int     `json:"popHigherGrade"`
	FrontImageURL   *string `json:"frontImageUrl"`
	BackImageURL    *string `json:"backImageUrl"`
	LabelImageURL   *string `json:"labelImageUrl"`
	CertDate        string  `json:"certDate"`
	GradeReasoning  string  `json:"gradeReasoning"`
	SpecID          string  `json:"specId"`
}

// field returns the first present, non-empty value among the candidate
// keys. The PSA API is not consistent about key names across response
// shapes, so every logical field carries an ordered candidate list.
func field(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			if t == float64(int64(t)) {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		default:
			s := fmt.Sprintf("%v", t)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

func fieldInt(obj map[string]any, keys ...string) int {
	s := field(obj, keys...)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// normalize maps a raw lookup payload onto a Card. The cert object may sit
// under PSACert, Cert, or at the top level.
func normalize(raw map[string]any, certNumber string) Card {
	cert := raw
	if c, ok := raw["PSACert"].(map[string]any); ok {
		cert = c
	} else if c, ok := raw["Cert"].(map[string]any); ok {
		cert = c
	}

	return Card{
		CertNumber:      fallback(field(cert, "CertNumber", "CertNo"), certNumber),
		CardName:        fallback(field(cert, "CardTitle", "Title", "Subject", "Name"), "Unknown Card"),
		Grade:           fallback(field(cert, "CardGrade", "Grade", "GradeDescription"), "N/A"),
		Variety:         field(cert, "Variety", "Type"),
		Year:            field(cert, "Year"),
		Brand:           field(cert, "Brand"),
		Category:        field(cert, "Category"),
		Sport:           field(cert, "Sport"),
		Subject:         field(cert, "Subject"),
		SpecNotes:       field(cert, "SpecNotes", "Notes"),
		TotalPopulation: fieldInt(cert, "TotalPopulation", "TotalPop"),
		PopHigherGrade:  fieldInt(cert, "PopHigherGrade", "PopulationHigher"),
		CertDate:        field(cert, "CertDate"),
		GradeReasoning:  field(cert, "GradeReasoning"),
		SpecID:          field(cert, "SpecID", "SpecNumber", "Spec"),
	}
}
