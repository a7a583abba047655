package extract

import (
	"regexp"
	"strconv"
	"strings"

	"clinical-consult-assistant/internal/domain/model"
	"clinical-consult-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this extractor satisfies the port
var _ adapter.SnapshotExtractor = (*RegexSnapshotExtractor)(nil)

var (
	nameRe   = regexp.MustCompile(`(?i)name[:\- ]+([A-Za-z ]+)`)
	ageRe    = regexp.MustCompile(`(?i)age[:\- ]+(\d+)`)
	genderRe = regexp.MustCompile(`(?i)gender[:\- ]+(male|female|other)`)
	hba1cRe  = regexp.MustCompile(`(?i)hba1c[:\- ]+([\d.]+)`)
	cholRe   = regexp.MustCompile(`(?i)cholesterol[:\- ]+([\d.]+)`)
	// Systolic reading from a BP pair like 120/80.
	bpRe = regexp.MustCompile(`(\d{2,3})/\d{2,3}`)
)

// RegexSnapshotExtractor mines the patient snapshot out of free text with
// fixed patterns. An absent match leaves the field nil.
type RegexSnapshotExtractor struct{}

func NewRegexSnapshotExtractor() *RegexSnapshotExtractor {
	return &RegexSnapshotExtractor{}
}

func (e *RegexSnapshotExtractor) Extract(text string) model.PatientSnapshot {
	var snap model.PatientSnapshot
	if m := nameRe.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		if v != "" {
			snap.Name = &v
		}
	}
	if m := ageRe.FindStringSubmatch(text); m != nil {
		v := m[1]
		snap.Age = &v
	}
	if m := genderRe.FindStringSubmatch(text); m != nil {
		v := m[1]
		snap.Gender = &v
	}
	snap.HbA1c = findFloat(hba1cRe, text)
	snap.Cholesterol = findFloat(cholRe, text)
	snap.SystolicBP = findFloat(bpRe, text)
	return snap
}

func findFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}
