package events

import (
	"errors"
	"fmt"
)

// Code is a stable machine readable error or warning code.
type Code string

const (
	CodeShapeIDMissing           Code = "SHAPE_ID_MISSING"
	CodeShapeIdentifierTooLong   Code = "SHAPE_IDENTIFIER_TOO_LONG"
	CodeCannotHandleItem         Code = "CANNOT_HANDLE_ITEM"
	CodeCannotHandleProduct      Code = "CANNOT_HANDLE_PRODUCT"
	CodeParentFolderNotFound     Code = "PARENT_FOLDER_NOT_FOUND"
	CodeCannotHandleItemRelation Code = "CANNOT_HANDLE_ITEM_RELATION"
	CodeUploadFailed             Code = "UPLOAD_FAILED"
	CodeFFmpegUnavailable        Code = "FFMPEG_UNAVAILABLE"
	CodeGridNotFound             Code = "GRID_NOT_FOUND"
	CodeInvalidDatetime          Code = "INVALID_DATETIME"
	CodeCannotPublishItem        Code = "CANNOT_PUBLISH_ITEM"
	CodeRemoteError              Code = "REMOTE_ERROR"
)

// ItemError is a per-item failure carrying the code it is reported under.
type ItemError struct {
	Code    Code
	Message string
	Item    *ItemRef
	Err     error
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError creates an ItemError.
func NewItemError(code Code, item *ItemRef, format string, args ...any) *ItemError {
	return &ItemError{Code: code, Message: fmt.Sprintf(format, args...), Item: item}
}

// CodeOf returns the code carried by err, or fallback when err is not an ItemError.
func CodeOf(err error, fallback Code) Code {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return fallback
}

// ErrorEvent converts err into an error event, keeping the item reference of an ItemError.
func ErrorEvent(err error, fallback Code, item *ItemRef) Event {
	e := Event{Type: TypeError, Code: fallback, Message: err.Error(), Item: item}
	var ie *ItemError
	if errors.As(err, &ie) {
		e.Code = ie.Code
		e.Message = ie.Message
		if ie.Item != nil {
			e.Item = ie.Item
		}
	}
	return e
}
