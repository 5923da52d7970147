package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteNamespace string

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Remove a document's source file and stored fragments",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteNamespace, "namespace", "n", "", "namespace of the document")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc, fragStore, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer fragStore.Close()

	result, err := svc.Delete(deleteNamespace, args[0])
	if err != nil {
		return err
	}

	fmt.Println(result.Message)
	return nil
}
