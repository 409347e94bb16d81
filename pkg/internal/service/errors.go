package service

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// 错误种类，配合 errors.Is 使用.
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthorization     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrStorage           = errors.New("blob storage failure")
	ErrMetadata          = errors.New("metadata store failure")
	ErrNotFound          = errors.New("not found")
)

// ValidationError 输入校验失败，Issues 以字段名或文件名为键.
type ValidationError struct {
	Issues map[string]string
}

// NewValidationError 构造单条校验错误.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Issues: map[string]string{field: msg}}
}

// Add 追加一条问题.
func (e *ValidationError) Add(field, msg string) {
	if e.Issues == nil {
		e.Issues = make(map[string]string)
	}

	e.Issues[field] = msg
}

// Empty 没有记录任何问题.
func (e *ValidationError) Empty() bool { return len(e.Issues) == 0 }

// Fields 排序后的问题键.
func (e *ValidationError) Fields() []string {
	keys := make([]string, 0, len(e.Issues))
	for k := range e.Issues {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, k := range e.Fields() {
		parts = append(parts, k+": "+e.Issues[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthorizationError actor 无权执行该操作.
type AuthorizationError struct {
	ActorID string
	Action  string
	Reason  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %q not authorized to %s: %s", e.ActorID, e.Action, e.Reason)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }

// InvalidTransitionError 当前状态不允许该动作.
type InvalidTransitionError struct {
	DocumentID string
	Action     string
	From       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s document %s in state %s", e.Action, e.DocumentID, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// StorageError 对象存储调用失败.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("blob %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// MetadataError 元数据存储调用失败.
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %s: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

func (e *MetadataError) Is(target error) bool { return target == ErrMetadata }

// NotFoundError 文档不存在或不属于该项目.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// HTTPStatus 将错误映射为 HTTP 状态码.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrStorage), errors.Is(err, ErrMetadata):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
