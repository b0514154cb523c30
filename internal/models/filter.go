package models

// UserFilter описывает критерии выборки пользователей.
// nil-поле не накладывает ограничений, заданные поля объединяются через AND.
type UserFilter struct {
	Limit     *int    // Максимальное количество записей (>= 1)
	ByName    *string // Точное совпадение имени
	ByCountry *string // Точное совпадение страны
	Status    *string // Точное совпадение статуса
}

// Match сообщает, удовлетворяет ли пользователь всем заданным предикатам фильтра.
// Limit на результат не влияет.
func (f UserFilter) Match(u User) bool {
	if f.ByName != nil && u.Name != *f.ByName {
		return false
	}
	if f.ByCountry != nil && u.Country != *f.ByCountry {
		return false
	}
	if f.Status != nil && u.Status != *f.Status {
		return false
	}
	return true
}
