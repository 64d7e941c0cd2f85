package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recallPrefix bool
	recallLimit  int
)

var recallCmd = &cobra.Command{
	Use:   "recall [key]",
	Short: "Recall a memory by key or prefix",
	Long:  "Recall a memory by exact key, or with --prefix scan all keys under it, newest first.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecall,
}

func init() {
	recallCmd.Flags().BoolVar(&recallPrefix, "prefix", false, "Treat the argument as a key prefix")
	recallCmd.Flags().IntVar(&recallLimit, "limit", 20, "Max records for prefix scans")
}

func runRecall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if recallPrefix {
		records, err := eng.Layers.ScanPrefix(args[0], recallLimit)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(b))
		return nil
	}

	rec, err := eng.Layers.Get(args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no memory for key %q", args[0])
	}
	fmt.Println(rec.Value)
	return nil
}
