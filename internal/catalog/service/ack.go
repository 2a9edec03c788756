package service

import (
	"context"
	"sync"
)

// Ack представляет результат асинхронной публикации события.
// Завершается когда брокер принял или отклонил отправку
type Ack struct {
	mu        sync.Mutex
	done      chan struct{}
	err       error
	callbacks []func(error)
}

// NewAck создаёт незавершённый Ack
func NewAck() *Ack {
	return &Ack{
		done: make(chan struct{}),
	}
}

// Complete завершает Ack результатом отправки и вызывает зарегистрированные
// continuation. Повторный вызов игнорируется
func (a *Ack) Complete(err error) {
	a.mu.Lock()
	select {
	case <-a.done:
		a.mu.Unlock()
		return
	default:
	}
	a.err = err
	callbacks := a.callbacks
	a.callbacks = nil
	close(a.done)
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(err)
	}
}

// Wait блокируется до завершения Ack или отмены контекста
func (a *Ack) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnComplete регистрирует continuation. Если Ack уже завершён,
// continuation вызывается сразу в текущей горутине
func (a *Ack) OnComplete(fn func(error)) {
	a.mu.Lock()
	select {
	case <-a.done:
		err := a.err
		a.mu.Unlock()
		fn(err)
		return
	default:
	}
	a.callbacks = append(a.callbacks, fn)
	a.mu.Unlock()
}

// CompletedAck возвращает уже завершённый Ack (для fake publishers в тестах)
func CompletedAck(err error) *Ack {
	a := NewAck()
	a.Complete(err)
	return a
}
