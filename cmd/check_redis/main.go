package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"botpanel/backend/internal/config"
	"botpanel/backend/internal/view"
	"botpanel/backend/pkg/redis"

	"github.com/joho/godotenv"
)

// check_redis prints the view snapshot a panel process mirrors to Redis
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	ctx := context.Background()
	key := redis.ViewSnapshotKey(cfg.Redis.Panel)

	var snap view.Snapshot
	if err := redisClient.GetJSON(ctx, key, &snap); err != nil {
		if redis.IsNil(err) {
			fmt.Printf("No snapshot at %s (is REDIS_ENABLED set on the panel?)\n", key)
			return
		}
		log.Fatalf("Failed to read snapshot: %v", err)
	}
	ttl, _ := redisClient.TTL(ctx, key)

	fmt.Printf("Snapshot %s: revision %d, taken %s, expires in %s\n",
		key, snap.Revision, snap.TakenAt.Format("2006-01-02 15:04:05"), ttl)

	ids := make([]string, 0, len(snap.Slots))
	for id := range snap.Slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		slot := snap.Slots[id]
		fmt.Printf("  %-26s %s %v\n", id, slot.Text, slot.Classes)
	}
	for id, table := range snap.Tables {
		if len(table.Rows) == 0 {
			fmt.Printf("  %-26s (%s)\n", id, table.EmptyMessage)
			continue
		}
		fmt.Printf("  %-26s %d rows\n", id, len(table.Rows))
	}
}
