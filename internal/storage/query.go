package storage

import (
	"strconv"
	"strings"

	"github.com/magabrotheeeer/user-registry/internal/models"
)

// Placeholder возвращает плейсхолдер для n-го (с единицы) аргумента запроса.
type Placeholder func(n int) string

// DollarPlaceholder нумерует параметры как $1, $2 (PostgreSQL).
func DollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// QuestionPlaceholder подставляет ? для любого параметра (SQLite).
func QuestionPlaceholder(int) string {
	return "?"
}

// UserColumns задаёт порядок колонок, в котором реализации сканируют строки user_table.
const UserColumns = "email, password, name, country, status"

// BuildFilterQuery собирает SELECT по user_table: по одному условию на каждое
// заданное поле фильтра, сортировка по id (порядок вставки) и LIMIT, если он задан.
func BuildFilterQuery(filter models.UserFilter, ph Placeholder) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT " + UserColumns + " FROM user_table WHERE 1=1")

	add := func(column string, value any) {
		args = append(args, value)
		b.WriteString(" AND " + column + " = " + ph(len(args)))
	}
	if filter.ByName != nil {
		add("name", *filter.ByName)
	}
	if filter.ByCountry != nil {
		add("country", *filter.ByCountry)
	}
	if filter.Status != nil {
		add("status", *filter.Status)
	}

	b.WriteString(" ORDER BY id")
	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		b.WriteString(" LIMIT " + ph(len(args)))
	}
	return b.String(), args
}
