package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"

	"whisperwall/client"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/projection"
)

type Config struct {
	HTTPURL  string `envconfig:"RELAY_HTTP_URL" default:"http://localhost:8080"`
	WSURL    string `envconfig:"RELAY_WS_URL" default:"ws://localhost:8080"`
	Code     string `envconfig:"CODE" required:"true"`
	Peer     string `envconfig:"PEER" required:"true"`
	Register bool   `envconfig:"REGISTER" default:"false"`
	// COLOURS enables colorized output for better readability
	Colours    bool   `envconfig:"COLOURS" default:"true"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"ERROR"`
	BufferSize int    `envconfig:"BUFFER_SIZE" default:"64"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours
	logger := logs.GetLoggerFromString(config.LogLevel)

	me, err := domain.ParseCode(config.Code)
	if err != nil {
		return err
	}
	peer, err := domain.ParseCode(config.Peer)
	if err != nil {
		return err
	}
	room := domain.NewConversationKey(me, peer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := authenticate(ctx, config, me)
	if err != nil {
		return err
	}
	c, err := client.Dial(ctx, logger, config.WSURL, me, token, config.BufferSize)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Join(room); err != nil {
		return err
	}
	if err := c.Follow(peer); err != nil {
		return err
	}
	color.Info.Printf("Chatting with %s in room %s. Type /quit to leave.\n", peer, room)

	timeline := projection.NewTimeline(me)
	lines := readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return c.Leave(room)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			id, err := c.Send(room, peer, line)
			if err != nil {
				return err
			}
			timeline.AddLocal(id, line, time.Now().Format("15:04"))
			render(timeline.Messages[len(timeline.Messages)-1])
		case evt, ok := <-c.Events():
			if !ok {
				return fmt.Errorf("connection to relay lost")
			}
			show(timeline, evt, logger)
		}
	}
}

func authenticate(ctx context.Context, config Config, me domain.Code) (string, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if config.Register {
		return client.Register(ctx, httpClient, config.HTTPURL, me.String())
	}
	return client.Login(ctx, httpClient, config.HTTPURL, me.String())
}

func readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func show(timeline *projection.Timeline, evt event.Outbound, log *slog.Logger) {
	switch e := evt.(type) {
	case event.SendRejected:
		color.Warn.Printf("Message not delivered in %s: %s\n", e.Room, e.Reason)
		return
	case event.ProtocolError:
		color.Error.Printf("Relay error: %s\n", e.Reason)
		return
	case event.DeliveryStatus:
		if timeline.Consume(e) && !e.OK {
			color.Error.Printf("Message %s could not be stored: %s\n", e.ID, e.Reason)
		}
		return
	}
	before := len(timeline.Messages)
	if !timeline.Consume(evt) {
		log.Debug("Duplicate event ignored", "kind", evt.Kind())
		return
	}
	if len(timeline.Messages) > before {
		render(timeline.Messages[len(timeline.Messages)-1])
	}
}

func render(entry projection.Entry) {
	if entry.FromMe {
		fmt.Println(color.New(color.FgGreen).Sprintf("[%s] me: %s", entry.Time, entry.Text))
		return
	}
	fmt.Println(color.New(color.BgBlack, color.FgCyan).Sprintf("[%s] %s: %s", entry.Time, entry.From, entry.Text))
}
