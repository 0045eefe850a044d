// README: Common identifier type shared across modules.
package types

import "strconv"

// ID is the numeric primary key of a persisted entity. Zero means "not assigned".
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a base-10 id. Leading zeros are accepted (reference codes are
// zero-padded for display).
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}
