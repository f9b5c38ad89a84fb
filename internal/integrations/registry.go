// Package integrations собирает реализации канбан-доски в одном реестре.
// Активная доска выбирается при старте и отдаётся синхронизации заказов.
package integrations

import (
	"fmt"
	"sync"
)

// RegistryInterface хранит доступные доски и выбирает активную.
type RegistryInterface interface {
	// Register добавляет доску. Имя доски должно быть уникальным.
	Register(provider BoardProvider) error

	// Get возвращает доску по имени.
	Get(name string) (BoardProvider, error)

	// SetActive выбирает доску, в которую синхронизация будет писать карточки.
	SetActive(name string) error

	// GetActive возвращает выбранную доску.
	GetActive() (BoardProvider, error)
}

// Registry - потокобезопасный реестр досок по имени.
type Registry struct {
	providers map[string]BoardProvider
	active    string
	mu        sync.RWMutex
}

func NewRegistry() RegistryInterface {
	return &Registry{
		providers: make(map[string]BoardProvider),
	}
}

func (r *Registry) Register(provider BoardProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("доска с именем '%s' уже зарегистрирована", name)
	}

	r.providers[name] = provider
	return nil
}

func (r *Registry) Get(name string) (BoardProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("доска с именем '%s' не найдена", name)
	}
	return provider, nil
}

// SetActive принимает только зарегистрированное имя.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return fmt.Errorf("нельзя сделать активной незарегистрированную доску '%s'", name)
	}
	r.active = name
	return nil
}

func (r *Registry) GetActive() (BoardProvider, error) {
	// Имя читается под блокировкой отдельно: Get берёт её сам.
	r.mu.RLock()
	activeName := r.active
	r.mu.RUnlock()

	if activeName == "" {
		return nil, fmt.Errorf("активная доска не установлена")
	}

	return r.Get(activeName)
}
