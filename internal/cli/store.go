package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var awaitTimeout time.Duration

var flushStoreCmd = &cobra.Command{
	Use:   "flush-store",
	Short: "Wipe the backing store",
	Long:  `Issue a full wipe of the backing store. Maintenance tooling only; every stored trace record is lost.`,
	RunE:  runFlushStore,
}

var publishCmd = &cobra.Command{
	Use:   "publish <channel> <payload>",
	Short: "Publish a message on a channel",
	Args:  cobra.ExactArgs(2),
	RunE:  runPublish,
}

var awaitCmd = &cobra.Command{
	Use:   "await <channel>",
	Short: "Wait for one message on a channel",
	Long:  `Subscribe to a channel and wait for a single message. Messages published before the subscription are not replayed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAwait,
}

func init() {
	awaitCmd.Flags().DurationVar(&awaitTimeout, "timeout", 5*time.Second, "how long to wait for a message")
	rootCmd.AddCommand(flushStoreCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(awaitCmd)
}

func runFlushStore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := newManager(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	if err := mgr.FlushAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Store flushed")
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := newManager(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	return mgr.Publish(cmd.Context(), args[0], args[1])
}

func runAwait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := newManager(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	payload, err := mgr.AwaitResponse(cmd.Context(), args[0], awaitTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), payload)
	return nil
}
