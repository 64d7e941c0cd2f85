package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhollow/phoenixmem/internal/engine"
	"github.com/emberhollow/phoenixmem/internal/store"
)

var (
	rememberLayer string
	rememberKey   string
	rememberOwner string
	rememberIndex bool
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Store a memory",
	Long:  "Store a memory in a retention layer. Content can be a positional arg or piped via stdin. With --owner and no --key, an episodic key is derived from the current time.",
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&rememberLayer, "layer", "episodic", "Retention layer: instinctual, longterm, episodic, working, fleeting")
	rememberCmd.Flags().StringVar(&rememberKey, "key", "", "Memory key")
	rememberCmd.Flags().StringVar(&rememberOwner, "owner", "", "Owner for derived episodic keys")
	rememberCmd.Flags().BoolVar(&rememberIndex, "index", false, "Also add the content to the semantic index")
}

func readContent(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return "", nil
}

func runRemember(cmd *cobra.Command, args []string) error {
	content, err := readContent(args)
	if err != nil {
		return err
	}
	if content == "" {
		return fmt.Errorf("content is required (positional arg or stdin)")
	}

	key := rememberKey
	if key == "" {
		if rememberOwner == "" {
			return fmt.Errorf("either --key or --owner is required")
		}
		key = engine.EpisodicKey(rememberOwner, time.Now().Unix())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := eng.Layers.Put(store.Layer(rememberLayer), key, content); err != nil {
		return err
	}
	if rememberIndex {
		if _, err := eng.Memorize(cmd.Context(), content, ""); err != nil {
			return err
		}
	}

	fmt.Println(key)
	return nil
}
