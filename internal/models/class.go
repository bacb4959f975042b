package models

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	// MinGrade and MaxGrade bound the grade numbers offered in forms.
	MinGrade = 1
	MaxGrade = 11

	// AbsenceSections are the class sections offered on the absence form.
	AbsenceSections = "АБВГ"
	// EventSections are the class sections offered on the group event form.
	EventSections = "АБВ"
)

// ClassCatalogue generates every grade+section label, grade-major.
func ClassCatalogue(sections string) []string {
	letters := []rune(sections)
	out := make([]string, 0, (MaxGrade-MinGrade+1)*len(letters))
	for grade := MinGrade; grade <= MaxGrade; grade++ {
		for _, letter := range letters {
			out = append(out, fmt.Sprintf("%d%c", grade, letter))
		}
	}
	return out
}

// SplitClassLabel separates the leading grade number from the section suffix.
// ok is false when the label does not start with a number.
func SplitClassLabel(label string) (grade int, section string, ok bool) {
	label = strings.TrimSpace(label)
	end := strings.IndexFunc(label, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(label)
	}
	if end == 0 {
		return 0, label, false
	}
	grade, err := strconv.Atoi(label[:end])
	if err != nil {
		return 0, label, false
	}
	return grade, label[end:], true
}
