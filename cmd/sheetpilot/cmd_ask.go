package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/sheetpilot/internal/query"
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().String("session", "", "session id to continue (omit for a new session)")
	askCmd.Flags().String("model", "", "model name (omit for the daemon's default)")
	askCmd.Flags().Bool("no-retry", false, "fail immediately instead of retrying transient errors")
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a prompt to the running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessionID, _ := cmd.Flags().GetString("session")
		model, _ := cmd.Flags().GetString("model")
		noRetry, _ := cmd.Flags().GetBool("no-retry")

		req := &query.Request{
			SessionID: sessionID,
			Prompt:    args[0],
			Model:     model,
		}

		policy := query.DefaultRetryPolicy()
		if noRetry {
			policy.MaxAttempts = 1
		}

		var resp *query.Response
		diagnostic := policy.Execute(func() string {
			var err error
			resp, err = postQuery(cfg.Listen, req)
			if err != nil {
				return err.Error()
			}
			// Reuse the returned session id so retries continue the same
			// conversation instead of opening a new one per attempt.
			req.SessionID = resp.SessionID
			return resp.Error
		})

		if resp == nil {
			return fmt.Errorf("daemon unreachable at %s: %s", cfg.Listen, diagnostic)
		}

		fmt.Fprintln(os.Stdout, resp.ResponseText)
		fmt.Fprintf(os.Stderr, "session: %s\n", resp.SessionID)
		if resp.Failed() {
			return fmt.Errorf("query failed: %s", resp.Error)
		}
		return nil
	},
}

// postQuery sends one request to the daemon's query endpoint.
func postQuery(listen string, req *query.Request) (*query.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	httpResp, err := client.Post("http://"+listen+"/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %s", httpResp.Status)
	}

	var resp query.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
