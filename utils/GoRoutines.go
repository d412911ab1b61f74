package utils

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type noPanicFunc func()
type noPanicFuncWErr func() error

// PanicError is returned by SafeSync when the wrapped function panics.
type PanicError struct {
	Value interface{}
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("goroutine panicked: %v", p.Value)
}

func (f noPanicFunc) run() {
	defer internalRecover()
	f()
}

func (f noPanicFuncWErr) run() (err error) {
	defer func() {
		if e := recover(); e != nil {
			log.Errorf("Task failed with panic: %v", e)
			log.Tracef("Stacktrace: %v", string(debug.Stack()))
			err = &PanicError{Value: e}
		}
	}()
	return f()
}

// SafeAsync runs function on a new goroutine, a panic is logged and swallowed.
func SafeAsync(function noPanicFunc) {
	go function.run()
}

// SafeSync runs function on the calling goroutine and converts a panic into *PanicError.
func SafeSync(function noPanicFuncWErr) error {
	return function.run()
}

func internalRecover() {
	if err := recover(); err != nil {
		log.Errorf("Background task failed with panic: %v", err)
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
	}
}
