package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/pkg/blog"
)

var publishCmd = &cobra.Command{
	Use:   "publish <file.md> [file.md...]",
	Short: "Publish markdown files as documents",
	Long: `Reads each markdown file and publishes it to the server. The title
comes from the first heading (falling back to the file name) and the
slug is derived from the title, so republishing updates in place.`,
	Aliases: []string{"ingest"},
	Args:    cobra.MinimumNArgs(1),
	RunE:    runPublish,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Print one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its search index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(publishCmd, listCmd, getCmd, deleteCmd)
}

type publishRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Slug    string `json:"slug,omitempty"`
}

type publishResponse struct {
	DocumentID string `json:"document_id"`
	Slug       string `json:"slug"`
	Chunks     int    `json:"chunks"`
	Written    int    `json:"written"`
}

func runPublish(cmd *cobra.Command, args []string) error {
	client := newAPIClient()

	for _, path := range args {
		resp, err := publishFile(client, path)
		if err != nil {
			return fmt.Errorf("publishing %s: %w", path, err)
		}
		cmd.Printf("published %s as %q (%d chunks)\n", path, resp.Slug, resp.Written)
	}
	return nil
}

// publishFile reads a markdown file and publishes it, deriving the
// title from the first heading or the file name.
func publishFile(client *apiClient, path string) (publishResponse, error) {
	var resp publishResponse

	content, err := os.ReadFile(path)
	if err != nil {
		return resp, err
	}

	title := blog.Title(string(content))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	err = client.do("POST", "/v1/documents",
		publishRequest{Title: title, Content: string(content)}, &resp)
	return resp, err
}

type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Documents []documentSummary `json:"documents"`
		Count     int               `json:"count"`
	}
	if err := newAPIClient().do("GET", "/v1/documents", nil, &resp); err != nil {
		return err
	}

	if resp.Count == 0 {
		cmd.Println("No documents published.")
		return nil
	}
	for _, doc := range resp.Documents {
		cmd.Printf("%s  %-30s  %s\n", doc.ID, doc.Slug, doc.Title)
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	var doc struct {
		Title   string `json:"title"`
		Slug    string `json:"slug"`
		Content string `json:"content"`
	}
	if err := newAPIClient().do("GET", "/v1/documents/"+args[0], nil, &doc); err != nil {
		return err
	}
	cmd.Println(doc.Content)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := newAPIClient().do("DELETE", "/v1/documents/"+args[0], nil, nil); err != nil {
		return err
	}
	cmd.Printf("deleted %s\n", args[0])
	return nil
}
