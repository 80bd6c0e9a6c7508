// Command lkctl is a small CLI over the enzian-lib LiveKit helpers:
// issue tokens, manage rooms, stream wave files and send hangup events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/ghb-enzian/enzian-lib/audio"
	"github.com/ghb-enzian/enzian-lib/livekit"
	"github.com/ghb-enzian/enzian-lib/messaging"
)

const usage = `usage: lkctl [-log-level level] <command> [flags]

commands:
  token        issue a participant token
  room-create  create a room on the server
  room-delete  delete a room from the server
  play         stream a wave file into a room
  hangup       publish a call.hangup event to a room
  serve        run the connection-details HTTP API

Configuration comes from LIVEKIT_URL, LIVEKIT_API_KEY and
LIVEKIT_API_SECRET.
`

func main() {
	os.Exit(run())
}

func run() int {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := livekit.LoadConfig()

	var err error
	switch args[0] {
	case "token":
		err = cmdToken(cfg, args[1:])
	case "room-create":
		err = cmdRoomCreate(ctx, cfg, logger, args[1:])
	case "room-delete":
		err = cmdRoomDelete(ctx, cfg, logger, args[1:])
	case "play":
		err = cmdPlay(ctx, cfg, logger, args[1:])
	case "hangup":
		err = cmdHangup(ctx, cfg, args[1:])
	case "serve":
		err = cmdServe(ctx, cfg, logger, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "lkctl: unknown command %q\n", args[0])
		flag.Usage()
		return 2
	}

	if err != nil {
		var playout *audio.PlayoutError
		if errors.As(err, &playout) {
			// frames were delivered; only the teardown complained
			logger.Warn("playback finished with teardown errors", "err", playout)
			return 0
		}
		fmt.Fprintf(os.Stderr, "lkctl: %v\n", err)
		return 1
	}
	return 0
}

func cmdToken(cfg *livekit.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	room := fs.String("room", "", "room name (required)")
	identity := fs.String("identity", "", "participant identity (random when empty)")
	fs.Parse(args)
	if *room == "" {
		return errors.New("token: -room is required")
	}

	details, err := livekit.NewTokenService(cfg).ConnectionDetails(*room, *identity)
	if err != nil {
		return err
	}
	fmt.Printf("identity: %s\ntoken: %s\n", details.ParticipantName, details.ParticipantToken)
	return nil
}

func cmdRoomCreate(ctx context.Context, cfg *livekit.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("room-create", flag.ExitOnError)
	room := fs.String("room", "", "room name (required)")
	maxParticipants := fs.Uint("max-participants", 0, "maximum participants (default 10)")
	emptyTimeout := fs.Duration("empty-timeout", 0, "empty room timeout (default 10m)")
	fs.Parse(args)
	if *room == "" {
		return errors.New("room-create: -room is required")
	}

	svc, err := livekit.NewRoomService(cfg, logger)
	if err != nil {
		return err
	}
	created, err := svc.CreateRoom(ctx, *room, &livekit.RoomOptions{
		MaxParticipants: uint32(*maxParticipants),
		EmptyTimeout:    *emptyTimeout,
	})
	if err != nil {
		return err
	}
	fmt.Printf("room: %s sid: %s\n", created.Name, created.Sid)
	return nil
}

func cmdRoomDelete(ctx context.Context, cfg *livekit.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("room-delete", flag.ExitOnError)
	room := fs.String("room", "", "room name (required)")
	fs.Parse(args)
	if *room == "" {
		return errors.New("room-delete: -room is required")
	}

	svc, err := livekit.NewRoomService(cfg, logger)
	if err != nil {
		return err
	}
	return svc.DeleteRoom(ctx, *room)
}

func cmdPlay(ctx context.Context, cfg *livekit.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	room := fs.String("room", "", "room name (required)")
	identity := fs.String("identity", "lkctl-player", "participant identity")
	file := fs.String("file", "", "path to a 16-bit PCM wave file (required)")
	batch := fs.Duration("batch", 0, "batch duration (default 1s)")
	fs.Parse(args)
	if *room == "" || *file == "" {
		return errors.New("play: -room and -file are required")
	}

	sampleRate, channels, err := audio.Probe(*file)
	if err != nil {
		return err
	}

	rtcRoom, err := livekit.ConnectParticipant(cfg, *room, *identity, &lksdk.RoomCallback{})
	if err != nil {
		return err
	}
	defer rtcRoom.Disconnect()

	sink, err := livekit.NewTrackSink(rtcRoom, sampleRate, channels, livekit.WithSinkLogger(logger))
	if err != nil {
		return err
	}

	player := audio.NewPlayer(audio.WithLogger(logger), audio.WithBatchDuration(*batch))
	return player.Play(ctx, *file, sink)
}

func cmdHangup(ctx context.Context, cfg *livekit.Config, args []string) error {
	fs := flag.NewFlagSet("hangup", flag.ExitOnError)
	room := fs.String("room", "", "room name (required)")
	identity := fs.String("identity", "lkctl-agent", "participant identity")
	reason := fs.String("reason", "", "hangup reason (default agent_initiated)")
	fs.Parse(args)
	if *room == "" {
		return errors.New("hangup: -room is required")
	}

	rtcRoom, err := livekit.ConnectParticipant(cfg, *room, *identity, &lksdk.RoomCallback{})
	if err != nil {
		return err
	}
	defer rtcRoom.Disconnect()

	return messaging.Publish(ctx, livekit.NewRoomChannel(rtcRoom), messaging.Hangup(*reason))
}

func cmdServe(ctx context.Context, cfg *livekit.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	fs.Parse(args)

	rooms, err := livekit.NewRoomService(cfg, logger)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	livekit.NewHandler(livekit.NewTokenService(cfg), rooms, logger).RegisterRoutes(e.Group("/api/v1"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(*addr)
	}()
	logger.Info("http api listening", "addr", *addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
