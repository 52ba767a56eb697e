// Package pool provides a bounded goroutine pool built on ants.
package pool

import "errors"

// 池相关错误定义
var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("池已关闭")

	// ErrPoolOverload 池已满且等待队列已满
	ErrPoolOverload = errors.New("池已满")
)
