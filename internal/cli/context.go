package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberhollow/phoenixmem/internal/engine"
)

var (
	contextOwner   string
	contextEmotion string
	contextExplore bool
	contextJSON    bool
)

var contextCmd = &cobra.Command{
	Use:   "context [input]",
	Short: "Assemble the weighted memory context for an input",
	Long:  "Assemble the weighted memory context that would precede a response to the given input.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextOwner, "owner", "", "Owner whose memories feed the assembly (required)")
	contextCmd.Flags().StringVar(&contextEmotion, "emotion", "", "Detected emotional state")
	contextCmd.Flags().BoolVar(&contextExplore, "explore", false, "Enable the exploratory fragment")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Print the full result as JSON, weights included")
	contextCmd.MarkFlagRequired("owner")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res := eng.BuildContext(cmd.Context(), engine.BuildRequest{
		Owner:       contextOwner,
		Input:       strings.Join(args, " "),
		Emotion:     contextEmotion,
		Exploratory: contextExplore,
	})

	if contextJSON {
		b, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(b))
		return nil
	}
	fmt.Println(res.Text)
	return nil
}
