package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listNamespace string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents in a namespace",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listNamespace, "namespace", "n", "", "namespace to list")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc, fragStore, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer fragStore.Close()

	docs, err := svc.ListDocuments(listNamespace)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	fmt.Printf("%-38s %-8s %s\n", "DOCUMENT", "CHUNKS", "FILENAME")
	for _, doc := range docs {
		name := ""
		if v, ok := doc.Metadata["filename"].(string); ok {
			name = v
		}
		fmt.Printf("%-38s %-8d %s\n", doc.DocumentID, doc.ChunkCount, name)
	}
	return nil
}
