package storage

import "errors"

var (
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrRecordNotFound  = errors.New("chat record not found")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidData     = errors.New("invalid data")
	ErrStorageInit     = errors.New("storage initialization failed")
	ErrFileOperation   = errors.New("file operation failed")
)
