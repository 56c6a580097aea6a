package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	askQuestion  string
	askTopK      int
	askNoSources bool
	askRaw       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the passages closest to the question, assemble them into a
prompt and let the language model answer. The answer lists the files it
was drawn from unless --no-sources is given.

Examples:
  oracle ask -q "How many vacation days do I get?"
  oracle ask "What is the refund policy?" -k 8 --no-sources`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "omit the list of source files")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print plain text even on a terminal")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	question := askQuestion
	if question == "" {
		question = strings.Join(args, " ")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("a question is required (use -q or pass it as arguments)")
	}

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}

	a, err := buildApp(ctx, cfg, GetRootDir(), true, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := warmMemoryIndex(ctx, cfg, a); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	out := a.oracle.Answer(ctx, question, topK, !askNoSources)
	fmt.Println(render(out))
	return nil
}

// render formats markdown for terminals and leaves piped output untouched.
func render(text string) string {
	if askRaw || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	out, err := glamour.Render(text, "dark")
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
