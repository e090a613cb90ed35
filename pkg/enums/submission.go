package enums

import (
	"fmt"
	"strings"
)

// SubmissionKind tags which onboarding form a submission came from.
type SubmissionKind string

const (
	SubmissionMusician  SubmissionKind = "MUSICIAN"
	SubmissionFilmmaker SubmissionKind = "FILMMAKER"
)

var validSubmissionKinds = []SubmissionKind{SubmissionMusician, SubmissionFilmmaker}

func (k SubmissionKind) String() string {
	return string(k)
}

func (k SubmissionKind) IsValid() bool {
	for _, candidate := range validSubmissionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Genre is the closed set of genres a musician can declare.
type Genre string

const (
	GenreRock      Genre = "Rock"
	GenreFolk      Genre = "Folk"
	GenrePop       Genre = "Pop"
	GenreJazz      Genre = "Jazz"
	GenreClassical Genre = "Classical"
)

var validGenres = []Genre{GenreRock, GenreFolk, GenrePop, GenreJazz, GenreClassical}

func (g Genre) String() string {
	return string(g)
}

func (g Genre) IsValid() bool {
	for _, candidate := range validGenres {
		if candidate == g {
			return true
		}
	}
	return false
}

// GenreChoices lists the accepted values, used in validation messages.
func GenreChoices() string {
	parts := make([]string, 0, len(validGenres))
	for _, g := range validGenres {
		parts = append(parts, string(g))
	}
	return strings.Join(parts, ", ")
}

// ParseGenre converts raw input into a Genre.
func ParseGenre(value string) (Genre, error) {
	for _, candidate := range validGenres {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid genre %q", value)
}
