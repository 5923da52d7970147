package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragstore/internal/usecase"
)

var (
	queryText      string
	queryNamespace string
	queryTopK      int
	queryFilters   []string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve the fragments most similar to a question",
	Long: `Embed the query text and rank stored fragments by cosine similarity.

Examples:
  ragstore query -q "how does billing work"
  ragstore query -q "error budget" -n team-a -k 10
  ragstore query -q "roadmap" --filter mime_type=text/markdown`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().StringVarP(&queryNamespace, "namespace", "n", "", "namespace to search")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of fragments to return")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "metadata filter key=value (repeatable)")
	queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc, fragStore, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer fragStore.Close()

	topK := queryTopK
	if topK <= 0 {
		topK = cfg.Retrieve.TopK
	}

	filters, err := parseFilters(queryFilters)
	if err != nil {
		return err
	}

	result, err := svc.Query(cmd.Context(), usecase.QueryRequest{
		Query:     queryText,
		Namespace: queryNamespace,
		TopK:      topK,
		Filters:   filters,
	})
	if err != nil {
		return err
	}

	if result.TotalFound == 0 {
		fmt.Println("No matching fragments found.")
		return nil
	}

	fmt.Printf("Found %d fragment(s):\n\n", result.TotalFound)
	for i, hit := range result.Fragments {
		fmt.Printf("%d. [%.4f] document %s\n", i+1, hit.Score, hit.DocumentID)
		text := hit.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("   %s\n\n", strings.ReplaceAll(text, "\n", "\n   "))
	}
	return nil
}

func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}
