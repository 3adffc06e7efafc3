package models

import (
	"errors"
	"fmt"
)

// Виды ошибок конвейера. Проверяются через errors.Is.
var (
	ErrNetwork            = errors.New("network error")
	ErrParse              = errors.New("parse error")
	ErrEmptyContent       = errors.New("empty content")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrIO                 = errors.New("io error")
)

// kindError связывает конкретную ошибку с ее видом
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.err }

// NewError создает ошибку вида kind с описанием и причиной (может быть nil)
func NewError(kind error, msg string, err error) error {
	return &kindError{kind: kind, msg: msg, err: err}
}

// KindOf возвращает вид ошибки или nil, если он не определен
func KindOf(err error) error {
	for _, kind := range []error{ErrNetwork, ErrParse, ErrEmptyContent, ErrServiceUnavailable, ErrIO} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// UnitError добавляет к ошибке контекст юнита, чтобы пользователь мог повторить вручную
type UnitError struct {
	Ordinal int
	Title   string
	URL     string
	State   RunState
	Err     error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("юнит %d %q (%s) на этапе %s: %v", e.Ordinal, e.Title, e.URL, e.State, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }
