package tracking

import (
	"github.com/liip/sheriff"
)

const (
	GroupBasic    = "basic"
	GroupDetailed = "detailed"
)

// ParseGroup maps a ?groups= query value onto a known field group, defaulting to basic
func ParseGroup(group string) string {
	if group == GroupDetailed {
		return GroupDetailed
	}

	return GroupBasic
}

// Reduce strips the board down to the fields tagged with group
func Reduce(board Board, group string) (interface{}, error) {
	return sheriff.Marshal(&sheriff.Options{
		Groups: []string{ParseGroup(group)},
	}, &board)
}
