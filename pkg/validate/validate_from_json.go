package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// SettingsUpdateFromJSON — строгий разбор обновления настроек и его проверка.
// Неизвестные поля и данные после объекта — ошибка разбора, а не тихий пропуск:
// опечатка в имени поля иначе превратилась бы в "ничего не изменилось".
func SettingsUpdateFromJSON(raw []byte) (*domain.SettingsUpdate, error) {
	var upd domain.SettingsUpdate
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("invalid json: trailing data")
	}
	if err := SettingsUpdate(&upd); err != nil {
		return nil, err
	}
	return &upd, nil
}
