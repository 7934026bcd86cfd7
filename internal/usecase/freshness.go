package usecase

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// generation — поколение данных одного вида (пользователь, настройки, справочники).
//
// Инвалидация увеличивает поколение и удаляет запись из кэша под одной блокировкой.
// Загрузка запоминает поколение до запроса и записывает результат в кэш только если
// поколение не изменилось: ответ, начатый до logout или записи настроек,
// не может вернуть в кэш устаревшие данные. Ключ дедупликации включает поколение,
// поэтому чтение после инвалидации не присоединяется к запросу, начатому до неё.
type generation struct {
	mu sync.Mutex
	n  uint64
}

func (g *generation) snapshot() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// invalidate — новое поколение; drop выполняется под блокировкой.
func (g *generation) invalidate(drop func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if drop != nil {
		drop()
	}
}

// commit — выполнить apply, если поколение всё ещё snap.
// Возвращает false, если данные успели инвалидировать.
func (g *generation) commit(snap uint64, apply func() error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n != snap {
		return false, nil
	}
	return true, apply()
}

// dedupKey — ключ дедупликации для поколения snap.
func dedupKey(base string, snap uint64) string {
	return fmt.Sprintf("%s:g%d", base, snap)
}

// passValidation — ошибка валидации пробрасывается как есть, без обёртки.
func passValidation(err error) (*domain.ValidationError, bool) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// messageOr — сообщение бэкенда из ошибки или def.
func messageOr(err error, def string) string {
	if msg, ok := domain.BackendMessage(err); ok {
		return msg
	}
	return def
}
