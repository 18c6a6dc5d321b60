package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/finplan/internal/assistant"
	"github.com/theirongolddev/finplan/internal/cli"
	"github.com/theirongolddev/finplan/internal/config"

	"github.com/spf13/cobra"
)

const chatRequestTimeout = 20 * time.Second

var flagChatMessage string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the financial assistant",
	Long: "Line-oriented chat with the Botpress assistant. Type a message and press enter.\n" +
		"/poll checks for a late reply, /quit exits.",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&flagChatMessage, "message", "M", "", "Send one message, print the reply and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	client, err := assistant.NewClient(
		config.GetBotpressToken(appCfg),
		config.GetBotpressBotID(appCfg),
		assistant.WithBaseURL(appCfg.Botpress.BaseURL),
		assistant.WithLogger(logger),
	)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			return fmt.Errorf("%w: set BOTPRESS_TOKEN and BOTPRESS_BOT_ID or run `finplan setup`", err)
		}
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ch := &chatLoop{client: client}

	if flagChatMessage != "" {
		ch.say(ctx, flagChatMessage)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FINANCIAL ASSISTANT"))
	fmt.Println(cli.RenderMuted("  /poll checks for a late reply, /quit exits"))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("  you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/poll":
			ch.poll(ctx)
		default:
			ch.say(ctx, line)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// chatLoop threads the conversation session between turns. The session is
// started once, on the first message.
type chatLoop struct {
	client  *assistant.Client
	session *assistant.Session
}

func (ch *chatLoop) say(ctx context.Context, text string) {
	reqCtx, cancel := context.WithTimeout(ctx, chatRequestTimeout)
	defer cancel()

	s, err := ch.client.Start(reqCtx, ch.session)
	if err != nil {
		fmt.Println(cli.RenderNote(err.Error()))
		return
	}
	ch.session = s

	if err := ch.client.Send(reqCtx, s, text); err != nil {
		fmt.Println(cli.RenderNote(err.Error()))
		return
	}
	ch.show(reqCtx)
}

func (ch *chatLoop) poll(ctx context.Context) {
	if !ch.session.Active() {
		fmt.Println(cli.RenderMuted("  Nothing sent yet."))
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx, chatRequestTimeout)
	defer cancel()
	ch.show(reqCtx)
}

func (ch *chatLoop) show(ctx context.Context) {
	reply, ok, err := ch.client.LatestReply(ctx, ch.session)
	switch {
	case err != nil:
		fmt.Println(cli.RenderNote(err.Error()))
	case !ok:
		fmt.Println(cli.RenderMuted("  No reply yet. Type /poll to check again."))
	default:
		fmt.Println("  bot> " + reply)
	}
}
