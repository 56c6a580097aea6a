package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"oracle/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List, inspect and select local language models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recommended models and whether they are installed",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show details for one model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsShow,
}

var modelsSelectCmd = &cobra.Command{
	Use:   "select <file>",
	Short: "Use an installed model for generation",
	Long: `Make an installed catalogue model the generation model and save the
choice to the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsSelect,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsShowCmd, modelsSelectCmd)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := cfg.ModelsPath(GetRootDir())

	fmt.Printf("Models directory: %s\n\n", dir)
	for i, m := range models.Catalog {
		mark := " "
		if models.IsInstalled(dir, m.File) {
			mark = "*"
		}
		current := ""
		if m.File == cfg.Generation.Model {
			current = "  (selected)"
		}
		fmt.Printf("%s %d. %s%s\n", mark, i+1, m.Name, current)
		fmt.Printf("     %s  %s\n", m.File, m.Size)
		fmt.Printf("     quality %-5s speed %-5s\n", models.Stars(m.Quality, "#"), models.Stars(m.Speed, "#"))
	}
	fmt.Println("\n* installed")
	return nil
}

func runModelsShow(cmd *cobra.Command, args []string) error {
	m, ok := models.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownModel, args[0])
	}
	dir := GetConfig().ModelsPath(GetRootDir())

	fmt.Printf("%s\n", m.Name)
	fmt.Printf("  File:        %s\n", m.File)
	fmt.Printf("  Size:        %s\n", m.Size)
	fmt.Printf("  Quality:     %s\n", models.Stars(m.Quality, "#"))
	fmt.Printf("  Speed:       %s\n", models.Stars(m.Speed, "#"))
	fmt.Printf("  Description: %s\n", m.Description)
	fmt.Printf("  Best for:    %s\n", m.BestFor)
	fmt.Printf("  Installed:   %t\n", models.IsInstalled(dir, m.File))
	return nil
}

func runModelsSelect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := cfg.ModelsPath(GetRootDir())

	if err := models.Select(cfg, args[0], dir); err != nil {
		return err
	}
	path := configSavePath()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Selected %s (saved to %s)\n", args[0], path)
	return nil
}
