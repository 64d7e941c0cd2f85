package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed memories by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	hits, err := eng.Index.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("[]")
		return nil
	}

	b, _ := json.MarshalIndent(hits, "", "  ")
	fmt.Println(string(b))
	return nil
}
