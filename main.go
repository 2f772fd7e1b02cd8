package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"raffler/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		log.WithError(err).Fatal("raffler failed")
	}
}
