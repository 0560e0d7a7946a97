// Команда statsviz анализирует замеры размеров токенов списков статусов:
// группирует их по (capacity, revoked), печатает средние и рисует диаграммы.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
var (
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	version = "dev" // Значение по умолчанию, если не установлено при сборке
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	buildDate = "unknown"
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	commitHash = "N/A"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
