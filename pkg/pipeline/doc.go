// Package pipeline реализует потоковое копирование результата SQL-запроса
// из БД-источника в таблицу другой БД или в файл.
//
// Конвейер состоит из одного читателя (Reader), очереди пакетов с обратным
// давлением (BatchQueue) и потребителей: пула писателей (Writer), каждый со
// своим соединением, либо файлового приемника (FileSink).
//
//	Reader -> BatchQueue -> Writer#0..N-1 | FileSink
//
// Читатель ждет, пока в очереди не станет меньше MaxBufferedRows строк,
// поэтому очередь может превысить порог не более чем на один пакет.
// После исчерпания источника читатель ждет полного опустошения очереди.
//
// Порядок строк сохраняется внутри пакета и для каждого писателя, но не
// между писателями. Зафиксированные пакеты не откатываются при сбое.
//
// Пример:
//
//	summary, err := pipeline.RunDBToDB(ctx, pipeline.DBToDBConfig{
//	    Source: pipeline.SourceConfig{DSN: "file:src.db", Data: "orders"},
//	    Target: pipeline.TargetConfig{DSN: "postgresql://localhost/dwh", Target: "orders", Threads: 4},
//	})
package pipeline
