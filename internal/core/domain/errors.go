package domain

import "errors"

var (
	ErrUnknownExportType    = errors.New("unknown export type")
	ErrUnknownProvider      = errors.New("unknown export provider")
	ErrAuthorizationDenied  = errors.New("authorization denied")
	ErrInvalidQuery         = errors.New("invalid export query")
	ErrDataSource           = errors.New("data source query failed")
	ErrFileNotFound         = errors.New("file not found")
	ErrInvalidFileName      = errors.New("invalid file name")
	ErrNotificationNotFound = errors.New("notification not found")
)
