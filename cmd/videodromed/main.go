// Command videodromed runs the videodrome daemon in the foreground, for
// service managers that supervise the process themselves.
package main

import (
	"context"
	"log"
	"os"

	"videodrome/internal/config"
	"videodrome/internal/daemonrun"
)

func main() {
	cfg, path, exists, err := config.Load(os.Getenv("VIDEODROME_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !exists {
		log.Printf("config %s not found; using defaults and environment", path)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel: os.Getenv("VIDEODROME_LOG_LEVEL"),
	}); err != nil {
		log.Fatalf("videodromed: %v", err)
	}
}
