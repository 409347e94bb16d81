package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/configs"
	mq "github.com/yeisme/docflow/pkg/internal/storage/mq"
	"github.com/yeisme/docflow/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Document event bus commands",
		Aliases: []string{"events"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list document event topics",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.AllTopics {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:     "tail",
		Short:   "print document events as they are published",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, &configs.GetConfig().MQ)
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck

			out := make(chan *message.Message)

			for _, topic := range queue.AllTopics {
				ch, err := client.Subscribe(ctx, topic)
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}

				go func() {
					for msg := range ch {
						out <- msg
					}
				}()
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case msg := <-out:
					printEvent(cmd, msg)
					msg.Ack()
				}
			}
		},
	}
)

func printEvent(cmd *cobra.Command, msg *message.Message) {
	w := cmd.OutOrStdout()

	if ev, err := queue.ParseDocumentEvent(msg); err == nil && ev.Payload.Document.ID != "" {
		d := ev.Payload.Document
		fmt.Fprintf(w, "%s %-28s project=%s doc=%s status=%s visibility=%s actor=%s\n",
			ev.Header.OccurredAt.Format("15:04:05"), ev.Header.Topic,
			d.ProjectID, d.ID, d.ApprovalStatus, d.VisibilityLevel, ev.Payload.ActorID)

		return
	}

	if ev, err := queue.ParseBlobOrphaned(msg); err == nil {
		fmt.Fprintf(w, "%s %-28s project=%s path=%s reason=%q\n",
			ev.Header.OccurredAt.Format("15:04:05"), ev.Header.Topic,
			ev.Payload.ProjectID, ev.Payload.StoragePath, ev.Payload.Reason)

		return
	}

	fmt.Fprintf(w, "unparsed message %s\n", msg.UUID)
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTopicsCmd)
	mqCmd.AddCommand(mqTailCmd)
}
