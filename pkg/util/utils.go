package util

import "github.com/go-ble/ble"

// UuidEqualStr tells whether u is the uuid written as s
func UuidEqualStr(u ble.UUID, s string) bool {
	other, err := ble.Parse(s)
	if err != nil {
		return false
	}
	return u.Equal(other)
}
