// Command dlqreplay moves parked jobs from dlq:{queue} back onto their queue.
// Uso: go run ./cmd/dlqreplay [-queue jobs:email] [-limit 10]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"chicpos/internal/config"
	"chicpos/internal/infra"
	"chicpos/internal/worker"
)

func main() {
	queue := flag.String("queue", worker.QueueClosureReceipt, "fila de origem")
	limit := flag.Int("limit", 0, "máximo de jobs (0 = todos)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "redis:", err)
		os.Exit(1)
	}
	defer rdb.Close()

	moved, err := worker.Replay(context.Background(), rdb, *queue, *limit)
	fmt.Printf("%d job(s) devolvidos para %s\n", moved, *queue)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
