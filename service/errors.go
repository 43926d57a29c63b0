package service

import (
	"Agora/pkg/log"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnsafe              = errors.New("unsafe content")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrTooFrequent         = errors.New("too frequent")
)

var domainErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrInvalidState,
	ErrConflict,
	ErrUpstreamUnavailable,
	ErrUnsafe,
	ErrInvalidArgument,
	ErrTooFrequent,
}

// IsDomainError 可以直接展示给调用方的业务错误
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// wrapInternal 业务错误原样返回，存储等内部错误记录完整上下文后包装返回
func wrapInternal(op string, err error, fields ...zap.Field) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	log.L.Error(op+" failed", append(fields, zap.Error(err))...)
	return fmt.Errorf("%s: %w", op, err)
}
