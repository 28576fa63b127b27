package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
)

// NotFoundError 引用的记录不存在（或已停用）
type NotFoundError struct {
	Entity  string
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Entity + " not found"
}

// InsufficientStockError 库存不足
type InsufficientStockError struct {
	PartID    string
	PartType  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient quantity for part %s. Available: %d, Requested: %d",
		e.PartType, e.Available, e.Requested)
}

// PriceMismatchError 提交单价与当前售价不符
type PriceMismatchError struct {
	PartID   string
	PartType string
	Expected float64
	Got      float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("Price mismatch for part %s. Expected: %s, Got: %s",
		e.PartType, formatAmount(e.Expected), formatAmount(e.Got))
}

// ConflictError 名称重复
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ValidationError 请求参数不合法
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
