package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusNamespace string

var statusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show the processing status of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusNamespace, "namespace", "n", "", "namespace of the document")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc, fragStore, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer fragStore.Close()

	st, err := svc.Status(statusNamespace, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Document:  %s\n", st.DocumentID)
	fmt.Printf("Status:    %s\n", st.Status)
	fmt.Printf("Stage:     %s\n", st.Stage)
	fmt.Printf("Updated:   %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05"))
	if st.Error != nil {
		fmt.Printf("Error:     [%s] %s\n", st.Error.Stage, st.Error.Message)
	}
	if len(st.Metadata) > 0 {
		fmt.Println("Metadata:")
		for _, key := range sortedKeys(st.Metadata) {
			fmt.Printf("  %s: %v\n", key, st.Metadata[key])
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
