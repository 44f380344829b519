// Package base предоставляет общую реализацию адаптера поверх database/sql
// для драйверов SQLite, MS SQL Server и MySQL.
//
// # Основные компоненты
//
// Session - соединение, которым владеет один читатель или писатель:
//   - ровно одно физическое соединение (*sql.Conn) из пула размером 1
//   - режим только для чтения через операторы диалекта
//   - ленивая транзакция для записи: открывается первым ExecBatch/Exec,
//     закрывается Commit
//   - подготовленный INSERT кешируется на время транзакции
//
// Dialect - различия СУБД:
//   - имя драйвера database/sql
//   - синтаксис плейсхолдеров (?, @pN)
//   - операторы для режима только для чтения и для записи
//   - нормализация значений драйвера (UNIQUEIDENTIFIER, ROWVERSION)
//
// # Использование
//
// Драйверный пакет встраивает *Session и регистрирует себя в фабрике:
//
//	type Adapter struct {
//	    *base.Session
//	}
//
//	func init() {
//	    adapters.Register("mysql", func() adapters.Adapter {
//	        return &Adapter{Session: base.NewSession(dialect)}
//	    })
//	}
package base
