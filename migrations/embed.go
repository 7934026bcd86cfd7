// Пакет migrations — SQL-миграции хранилища сессии, встроенные в бинарник.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
