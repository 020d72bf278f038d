package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/APTRPC"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/redis"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/tracker"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/workers"
)

func main() {
	log.Print("Starting cross-chain bridge relayer")

	if _, err := os.Stat("logs"); err == nil {
		f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file for writing: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	config.Init()

	// connect to Redis, without persistence do not continue
	redis.Init()
	if err := redis.Ping(); err != nil {
		log.Fatalf("cannot reach redis: %v", err)
	}

	// fail fast on an unreachable Move node; a dead endpoint here is a
	// config error, not a transient one
	if _, err := APTRPC.GetClient().LedgerVersion(); err != nil {
		log.Fatalf("cannot reach Aptos node %s: %v", config.Config.Aptos.NodeURL, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	coordinator := workers.NewCoordinator(tracker.NewRedis())

	// two pipeline goroutines, one per direction; the HTTP worker
	// serves as the main thread and cancels them on shutdown
	coordinator.Run(ctx)

	workers.Worker_HTTP(coordinator, cancel)
}
