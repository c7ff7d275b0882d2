// answerctl is a small CLI for querying a running answer-engine server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL     string
	topN          int
	topK          int
	contextBudget int
	filters       map[string]string
	timeout       time.Duration
	rawOutput     bool
)

var rootCmd = &cobra.Command{
	Use:           "answerctl",
	Short:         "Query the answer engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask a question and print the grounded answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(args[0])
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server readiness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealth()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9010", "answer engine base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	askCmd.Flags().IntVar(&topN, "top-n", -1, "candidates to retrieve per mode (-1 uses server default)")
	askCmd.Flags().IntVar(&topK, "top-k", -1, "candidates to keep after reranking (-1 uses server default)")
	askCmd.Flags().IntVar(&contextBudget, "budget", -1, "context budget in characters (-1 uses server default)")
	askCmd.Flags().StringToStringVar(&filters, "filter", nil, "metadata filters, e.g. --filter source_file=report.pdf")
	askCmd.Flags().BoolVar(&rawOutput, "json", false, "print the raw JSON response")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
}

type askRequest struct {
	Query         string            `json:"query"`
	TopN          *int              `json:"top_n,omitempty"`
	TopK          *int              `json:"top_k,omitempty"`
	ContextBudget *int              `json:"context_budget,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		ChunkID    string `json:"chunk_id"`
		SourceFile string `json:"source_file"`
		PageNumber int    `json:"page_number"`
		Snippet    string `json:"snippet"`
	} `json:"sources"`
	Degraded      bool     `json:"degraded"`
	StageFailures []string `json:"stage_failures"`
}

func runAsk(query string) error {
	req := askRequest{Query: query, Filters: filters}
	if topN >= 0 {
		req.TopN = &topN
	}
	if topK >= 0 {
		req.TopK = &topK
	}
	if contextBudget >= 0 {
		req.ContextBudget = &contextBudget
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(serverURL+"/v1/answer", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if rawOutput {
		fmt.Println(string(body))
		return nil
	}

	var answer askResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range answer.Sources {
			fmt.Printf("  [%s] %s p.%d: %s\n", s.ChunkID, s.SourceFile, s.PageNumber, s.Snippet)
		}
	}
	if answer.Degraded {
		fmt.Printf("\n(degraded: %v)\n", answer.StageFailures)
	}
	return nil
}

func runHealth() error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(serverURL + "/readyz")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, string(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server not ready")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
