package state

import (
	"sync"
	"time"
)

// Manager хранит состояния диалогов. Запись, не обновлявшаяся дольше ttl, считается отсутствующей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager создаёт новый менеджер состояний
func NewManager(ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		states: make(map[int64]*UserData),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) alive(data *UserData) bool {
	return m.now().Sub(data.UpdatedAt) < m.ttl
}

// GetState получает текущее состояние пользователя
func (m *Manager) GetState(telegramID int64) UserState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if data, ok := m.states[telegramID]; ok && m.alive(data) {
		return data.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя, StateNone удаляет запись
func (m *Manager) SetState(telegramID int64, state UserState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == StateNone {
		delete(m.states, telegramID)
		return
	}

	data, ok := m.states[telegramID]
	if !ok || !m.alive(data) {
		data = &UserData{}
		m.states[telegramID] = data
	}
	data.State = state
	data.UpdatedAt = m.now()
}

// ClearState очищает состояние пользователя
func (m *Manager) ClearState(telegramID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, telegramID)
}

// Sweep удаляет просроченные записи и возвращает их количество
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, data := range m.states {
		if !m.alive(data) {
			delete(m.states, id)
			removed++
		}
	}
	return removed
}
