package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search documents semantically",
	Long: `Embeds the query and returns the documents whose content is closest
in meaning, ranked by similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResult struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    string    `json:"excerpt"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	var resp struct {
		Results []searchResult `json:"results"`
		Count   int            `json:"count"`
	}
	body := map[string]any{"query": args[0], "limit": searchLimit}
	if err := newAPIClient().do("POST", "/v1/search", body, &resp); err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp.Results, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if resp.Count == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, r := range resp.Results {
		cmd.Printf("[%d] %s (%.3f)\n", i+1, r.Title, r.Similarity)
		cmd.Printf("    /%s\n", r.Slug)
		if r.Excerpt != "" {
			cmd.Println("    " + r.Excerpt)
		}
		cmd.Println()
	}
	return nil
}
