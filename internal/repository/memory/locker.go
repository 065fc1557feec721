package memory

import (
	"context"
	"sort"
	"sync"
)

// keyLock блокировка одного ключа. refs считает владельца и ожидающих:
// запись удаляется из карты, когда ключ больше никому не нужен
type keyLock struct {
	ch   chan struct{}
	refs int
}

// Locker блокировки по ключам ресурсов внутри одного процесса
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// WithBookingLock захватывает блокировки ключей в отсортированном порядке и выполняет fn.
// Ожидание прерывается отменой ctx, уже захваченные ключи освобождаются
func (l *Locker) WithBookingLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	acquired := make([]string, 0, len(sorted))
	defer func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.unlock(acquired[i])
		}
	}()

	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		if err := l.lock(ctx, key); err != nil {
			return err
		}
		acquired = append(acquired, key)
	}

	return fn(ctx)
}

func (l *Locker) lock(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, kl)
		return ctx.Err()
	}
}

func (l *Locker) unlock(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()

	<-kl.ch
	l.release(key, kl)
}

func (l *Locker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// size количество ключей, по которым есть владелец или ожидающие
func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
