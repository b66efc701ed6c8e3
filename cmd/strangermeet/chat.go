package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adnankhan0111/StrangerMeet/internal/client"
	"github.com/adnankhan0111/StrangerMeet/internal/config"
	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

var errConnectionLost = errors.New("connection to server lost")

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Chat with a random stranger from the terminal",
	Long: `Join the text chat queue and talk to a random stranger.

Commands while chatting:
  /next   leave the current stranger and find a new one
  /end    leave the current stranger without re-queuing
  /quit   exit

Examples:
  strangermeet chat
  strangermeet chat --server-url wss://strangermeet.example/ws --codec msgpack`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	config.AddClientFlags(chatCmd.Flags())
}

func runChat(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	codec, err := protocol.LookupCodec(cfg.Codec)
	if err != nil {
		return err
	}

	serverURL, err := cfg.WebSocketURL()
	if err != nil {
		return err
	}

	c := client.New(serverURL, codec)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	handler := client.NewHandler(c)
	go handler.Start()
	defer handler.Stop()

	if err := c.Send(&protocol.Message{Type: protocol.TypeJoinTextQueue}); err != nil {
		return err
	}
	fmt.Fprintln(out, "Looking for a stranger... (/next to skip, /end to stop, /quit to exit)")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	partnered := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-handler.Closed:
			return errConnectionLost

		case <-handler.PartnerFound:
			partnered = true
			fmt.Fprintln(out, "You're now chatting with a stranger. Say hi!")

		case text := <-handler.TextMessage:
			fmt.Fprintf(out, "Stranger: %v\n", text)

		case <-handler.PartnerLeft:
			partnered = false
			fmt.Fprintln(out, "Stranger has disconnected.")

		case <-handler.Queued:
			fmt.Fprintln(out, "Looking for a new stranger...")

		case n := <-handler.QueueLength:
			slog.Debug("queue length", "waiting", n)

		case n := <-handler.OnlineCount:
			slog.Debug("online count", "online", n)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			var msg *protocol.Message
			switch line = strings.TrimSpace(line); line {
			case "":
				continue
			case "/quit":
				return nil
			case "/next":
				partnered = false
				msg = &protocol.Message{Type: protocol.TypeNextText}
			case "/end":
				partnered = false
				msg = &protocol.Message{Type: protocol.TypeEndText}
				fmt.Fprintln(out, "Chat ended. Type /next to meet someone new.")
			default:
				if !partnered {
					fmt.Fprintln(out, "Nobody is listening yet.")
					continue
				}
				msg = &protocol.Message{Type: protocol.TypeTextMessage, Payload: line}
			}
			if err := c.Send(msg); err != nil {
				return err
			}
		}
	}
}
