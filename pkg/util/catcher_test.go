package util

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestCatchErrs(t *testing.T) {
	err := CatchErrs(func() error { return errors.New("plain") })
	assert.ErrorContains(t, err, "plain")

	err = CatchErrs(func() error { Throw(errors.New("thrown")); return nil })
	assert.ErrorContains(t, err, "recovered panic: thrown")

	err = CatchErrs(func() error { panic("not an error") })
	assert.ErrorContains(t, err, "not an error")

	assert.NilError(t, CatchErrs(func() error { return nil }))
}

func TestTryCatchFinally(t *testing.T) {
	order := []string{}
	TryCatchBlock{
		Try:     func() { order = append(order, "try"); Throw(errors.New("x")) },
		Catch:   func(error) { order = append(order, "catch") },
		Finally: func() { order = append(order, "finally") },
	}.Do()
	assert.DeepEqual(t, order, []string{"try", "catch", "finally"})
}
