package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Desk/internal/client"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

type watchOptions struct {
	url      string
	userID   string
	username string
	join     string
	create   string
	private  bool
	room     string
	say      string
	style    string
	color    string
}

func watchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect, optionally join a session, and log everything that happens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID == "" {
				return fmt.Errorf("--user-id is required")
			}
			return runWatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "ws://localhost:8080/ws", "WebSocket endpoint")
	cmd.Flags().StringVar(&opts.userID, "user-id", os.Getenv("DESK_USER_ID"), "Participant id sent as the user_id cookie")
	cmd.Flags().StringVarP(&opts.username, "name", "n", "deskctl", "Display name")
	cmd.Flags().StringVar(&opts.join, "join", "", "Session id to join after connecting")
	cmd.Flags().StringVar(&opts.create, "create", "", "Create a session with this name after connecting")
	cmd.Flags().BoolVar(&opts.private, "private", false, "Make the created session private")
	cmd.Flags().StringVar(&opts.style, "cursor-style", string(domain.CursorArrow), "Cursor style: arrow, hand, crosshair or pointer")
	cmd.Flags().StringVar(&opts.color, "cursor-color", domain.DefaultCursorColor, "Cursor color")
	cmd.Flags().StringVar(&opts.room, "room", "", "Room id to join after connecting")
	cmd.Flags().StringVar(&opts.say, "say", "", "Chat line to send once connected (to --room, or the lobby)")

	return cmd
}

func runWatch(parent context.Context, opts watchOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: "user_id", Value: opts.userID}).String())

	c := client.New(client.Options{
		URL:      opts.url,
		Header:   header,
		Username: opts.username,
		Cursor:   domain.CursorConfig{Style: domain.CursorStyle(opts.style), Color: opts.color},
		OnStateChange: func(s client.ConnectionState) {
			log.Info().Str("module", "deskctl").Str("state", string(s)).Msg("connection state")
		},
	})
	defer c.Close()

	joined := false
	unsubscribe := c.Subscribe(func(env protocol.RawEnvelope) {
		log.Info().Str("module", "deskctl").Str("type", string(env.Type)).RawJSON("payload", rawOrNull(env.Payload)).Msg("event")
		if env.Type != protocol.TypeConnect || joined {
			return
		}
		joined = true
		if err := afterConnect(c, opts); err != nil {
			log.Warn().Err(err).Str("module", "deskctl").Msg("setup after connect")
		}
	})
	defer unsubscribe()

	if err := c.Connect(ctx); err != nil {
		log.Warn().Err(err).Str("module", "deskctl").Msg("first connect failed, retrying")
	}

	<-ctx.Done()
	snap := c.Snapshot()
	if snap.CurrentSession != nil && snap.CurrentSession.ID != domain.GlobalSessionID {
		log.Info().Str("module", "deskctl").Str("session", string(snap.CurrentSession.ID)).Int("members", len(snap.RemoteMembers)).Msg("leaving")
		_ = c.LeaveSession()
	}
	return nil
}

func afterConnect(c *client.Client, opts watchOptions) error {
	if err := c.ListSessions(); err != nil {
		return err
	}
	switch {
	case opts.create != "":
		if err := c.CreateSession(opts.create, opts.private); err != nil {
			return err
		}
	case opts.join != "":
		if err := c.JoinSession(domain.SessionID(opts.join)); err != nil {
			return err
		}
	}
	if opts.room != "" {
		if err := c.JoinRoom(domain.RoomID(opts.room)); err != nil {
			return err
		}
	}
	if opts.say != "" {
		return c.SendChat(domain.RoomID(opts.room), opts.say)
	}
	return nil
}

func rawOrNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
