package main

// feed-demo runs the client half of the notification core against a live
// API: initial load over HTTP, realtime events over redis, toasts on stdout.

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"upkeep/internal/client"
	"upkeep/internal/config"
	"upkeep/internal/feed"
	"upkeep/internal/realtime"
)

func main() {
	var (
		userID = flag.String("user", "", "authenticated user id")
		token  = flag.String("token", "", "session bearer token")
	)
	flag.Parse()
	if *userID == "" || *token == "" {
		log.Fatal("both -user and -token are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	store := client.New(cfg.APIBaseURL, *token)
	events := realtime.NewRedisChannel(rdb, logger)

	f := feed.New(store, events, *userID,
		feed.WithLogger(logger),
		feed.WithToaster(printToast),
	)
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := f.Start(ctx); err != nil {
		log.Fatalf("could not start feed: %v", err)
	}

	for _, n := range f.Items() {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s - %s\n", marker, n.Priority, n.Title, n.Body)
	}
	fmt.Printf("%d unread\n", f.UnreadCount())

	<-ctx.Done()
	logger.Info("shutting down")
}

func printToast(n feed.Notification, p feed.Presentation) {
	fmt.Printf("toast(%s): %s - %s", p.Style, n.Title, n.Body)
	if p.ActionURL != "" {
		fmt.Printf(" [%s -> %s]", p.ActionLabel, p.ActionURL)
	}
	fmt.Println()
}
