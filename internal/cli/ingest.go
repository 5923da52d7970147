package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragstore/internal/adapter/fs"
	"ragstore/internal/domain"
)

var ingestNamespace string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-directory>",
	Short: "Ingest documents into the fragment store",
	Long: `Ingest a file, or every matching file under a directory, into the
fragment store. Each file becomes one document: its text is extracted,
segmented, embedded and stored.

Examples:
  ragstore ingest report.txt
  ragstore ingest ./docs --namespace team-a`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestNamespace, "namespace", "n", "", "namespace to ingest into")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	cfg := GetConfig()
	svc, fragStore, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer fragStore.Close()

	var files []string
	if info.IsDir() {
		walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
		found, err := walker.Walk(path)
		if err != nil {
			return fmt.Errorf("failed to scan directory: %w", err)
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	} else {
		files = []string{path}
	}

	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Ingesting"),
		)
	}

	indexed, failed := 0, 0
	for _, file := range files {
		result := svc.IngestFile(cmd.Context(), file, ingestNamespace)
		if result.Status == domain.StatusFailed {
			failed++
			fmt.Fprintf(os.Stderr, "\n%s: failed at %s: %s\n", file, result.Stage, result.Err.Message)
		} else {
			indexed++
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	fmt.Printf("Ingested %d document(s), %d failed.\n", indexed, failed)
	return nil
}
