// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrWorkTerm is returned for co-op work term courses (term 0). Their
	// cohort cannot be derived from the year, semester and course number.
	ErrWorkTerm = errors.New("cohort of a work term course cannot be derived")

	// ErrNoTermDigit is returned when the course name carries no digit to
	// derive the academic term from.
	ErrNoTermDigit = errors.New("course name has no term digit")
)

// cohortOffset is the number of years between taking a course in a given
// academic term and graduating.
var cohortOffset = map[int]int{
	1: 5, 2: 5, // 20(y)01, 20(y)02
	3: 4, 4: 4, // 20(y+1)01, 20(y+1)03
	5: 3, // 20(y+2)02
	6: 2, 7: 2, // 20(y+3)01, 20(y+4)03
	8: 1, // 20(y+4)02
}

// TermOf returns the academic term encoded as the first digit of a course
// number, e.g. 4 for "ENGI 4425".
func TermOf(course string) (int, error) {
	for _, r := range course {
		if r >= '0' && r <= '9' {
			return int(r - '0'), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoTermDigit, course)
}

// GetCohort converts a grade sheet period to the graduating cohort of the
// students who took course in it. period is a year ("2017") or a year
// followed by a semester ("201703"); semesters after the first (fall) push
// the cohort out by a year. termTaken overrides the term derived from the
// course number for courses numbered out of sequence (CHEM 1051 is taken
// in term 3); zero means derive it.
func GetCohort(period, course string, termTaken int) (int, error) {
	if termTaken == 0 {
		t, err := TermOf(course)
		if err != nil {
			return 0, err
		}
		termTaken = t
	}

	year, semester, err := ParsePeriod(period)
	if err != nil {
		return 0, err
	}

	if termTaken == 0 {
		return 0, fmt.Errorf("%w: %q", ErrWorkTerm, course)
	}

	cohort := year
	if semester > 1 {
		cohort++
	}
	return cohort + cohortOffset[termTaken], nil
}

// ParsePeriod splits a grade sheet column name into year and semester.
// Spreadsheets sometimes store the column as a float ("2017.0"); the
// fractional zero is ignored.
func ParsePeriod(period string) (year, semester int, err error) {
	p := strings.TrimSuffix(strings.TrimSpace(period), ".0")
	if len(p) < 4 {
		return 0, 0, fmt.Errorf("period %q is not a year or year+semester", period)
	}

	year, err = strconv.Atoi(p[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("period %q: bad year: %w", period, err)
	}
	if len(p) > 4 {
		semester, err = strconv.Atoi(p[4:])
		if err != nil {
			return 0, 0, fmt.Errorf("period %q: bad semester: %w", period, err)
		}
	}
	return year, semester, nil
}
