package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-research-be/internal/config"
	"ai-research-be/pkg/events"
	pktNats "ai-research-be/pkg/nats"

	"github.com/fatih/color"
)

// Tails the NATS mirror of the job event stream. Useful for checking that
// lifecycle events leave the process without wiring up a browser client.
func main() {
	cfg := config.Load()

	sub, err := pktNats.NewSubscriber(cfg.Nats.URL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	subject := "research.job.>"
	if len(os.Args) > 1 {
		subject = os.Args[1]
	}

	err = sub.Subscribe(subject, "tailevents", func(ctx context.Context, event events.Event) error {
		data := event.Payload()
		line := fmt.Sprintf("%-14s job=%v status=%v stage=%v %v",
			event.EventType(), data["job_id"], data["status"], data["stage"], data["message"])

		switch data["status"] {
		case "done":
			color.Green("%s", line)
		case "error":
			color.Red("%s", line)
		case "cancelled":
			color.Yellow("%s", line)
		default:
			color.Cyan("%s", line)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	log.Printf("Tailing %s (Ctrl+C to stop)", subject)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Stopped.")
}
