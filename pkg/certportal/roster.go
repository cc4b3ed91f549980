package certportal

import (
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Roster import errors
var (
	// ErrEmptyRoster indicates the CSV contained no data rows
	ErrEmptyRoster = errors.New("roster file is empty")

	// ErrRosterHeader indicates the CSV header is missing required columns
	ErrRosterHeader = errors.New("roster header must contain user_identifier, user_name, filename")
)

// RosterEntry is one row of a CSV roster mapping a recipient identity to a
// pre-uploaded PDF filename.
type RosterEntry struct {
	UserIdentifier string `csv:"user_identifier"`
	UserName       string `csv:"user_name"`
	Filename       string `csv:"filename"`
}

// ParseRoster decodes a CSV roster. The first row must be the header
// "user_identifier,user_name,filename"; a file whose first data row lacks
// any of the three fields is rejected, matching how malformed exports are
// caught before anything is inserted.
func ParseRoster(r io.Reader) ([]RosterEntry, error) {
	var rows []RosterEntry
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrEmptyRoster
		}
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}
	if rows[0].UserIdentifier == "" || rows[0].UserName == "" || rows[0].Filename == "" {
		return nil, ErrRosterHeader
	}
	return rows, nil
}
