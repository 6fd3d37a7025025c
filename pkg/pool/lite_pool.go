package pool

// Pool is a typed sync.Pool. Values implementing Resettable are reset before
// they go back in the pool. The constructor is checked once up front so Get
// never has to deal with a nil or mistyped value.
//
//	buffers, err := pool.NewLitePool(func() *[]byte {
//		buf := make([]byte, 8*1024)
//		return &buf
//	})
//	buf := buffers.Get()
//	defer buffers.Put(buf)

import (
	"errors"
	"sync"
)

var (
	ErrNilConstructor = errors.New("litepool: constructor must not be nil")
	ErrNilValue       = errors.New("litepool: constructor returned nil")
)

type Resettable interface {
	Reset()
}

type Pool[T any] struct {
	pool sync.Pool
}

func NewLitePool[T any](newFn func() T) (*Pool[T], error) {
	if newFn == nil {
		return nil, ErrNilConstructor
	}
	if isNil(newFn()) {
		return nil, ErrNilValue
	}

	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				v := newFn()
				if isNil(v) {
					panic(ErrNilValue)
				}
				return v
			},
		},
	}, nil
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // New is validated
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}

func isNil[T any](v T) bool {
	return any(v) == nil
}
