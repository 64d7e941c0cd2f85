package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget [key]",
	Short: "Delete a memory by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	existed, err := eng.Layers.Delete(args[0])
	if err != nil {
		return err
	}
	if !existed {
		fmt.Println("nothing to forget")
		return nil
	}
	fmt.Println("forgotten")
	return nil
}
