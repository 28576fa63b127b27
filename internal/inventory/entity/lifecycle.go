package entity

import (
	"errors"
	"fmt"
)

// Lifecycle 记录生命周期状态
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"  // 在用
	LifecycleRetired Lifecycle = "retired" // 已停用（软删除）
)

// ErrInvalidTransition 非法的状态迁移
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// IsActive 是否在用
func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}

// Retire active -> retired
func (l *Lifecycle) Retire() error {
	if *l != LifecycleActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, *l, LifecycleRetired)
	}
	*l = LifecycleRetired
	return nil
}

// Reactivate retired -> active
func (l *Lifecycle) Reactivate() error {
	if *l != LifecycleRetired {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, *l, LifecycleActive)
	}
	*l = LifecycleActive
	return nil
}

// ParseLifecycle 解析外部传入的状态值
func ParseLifecycle(s string) (Lifecycle, error) {
	switch Lifecycle(s) {
	case LifecycleActive, LifecycleRetired:
		return Lifecycle(s), nil
	}
	return "", fmt.Errorf("unknown state %q", s)
}
