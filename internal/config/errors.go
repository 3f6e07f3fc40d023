package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.url is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrUnknownEngine error if config db.gormEngine is not supported.
	ErrUnknownEngine = errors.New("config db.gormEngine must be mysql, postgres or sqlite")

	// ErrLevelBounds error if config rbac.minLevel is greater than rbac.maxLevel.
	ErrLevelBounds = errors.New("config rbac.minLevel can not be greater than rbac.maxLevel")

	// ErrNegativeDuration error if a configured duration is negative.
	ErrNegativeDuration = errors.New("config rbac durations can not be negative")
)
