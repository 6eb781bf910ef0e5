package observable

import (
	"errors"
	"fmt"
)

var ErrNilSubscriberFunc = errors.New("subscriber function must not be nil")
var ErrInvalidObserver = errors.New("observer must be an observer object or a next function")
var ErrNotObservable = errors.New("not an observable")
var ErrEmptyObservableName = errors.New("empty observable name supplied")

// toError returns v unchanged when it already is a non-nil error.
// Any other value becomes an error carrying the string form of v as its message.
func toError(v any) error {
	if err, ok := v.(error); ok && err != nil {
		return err
	}

	return errors.New(fmt.Sprint(v))
}

// invoke calls fn and turns a panic raised by it into an error.
func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toError(r)
		}
	}()

	return fn()
}
