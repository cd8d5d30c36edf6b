package config

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLevelNotFound = errors.New("level not found")
)
