package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	dispatchHubURL      string
	dispatchConfigFile  string
	dispatchScenarios   string
	dispatchEnvironment string
	dispatchData        string
	dispatchWatch       bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Submit a job to a running hub",
	Long: `Dispatch uploads the job's config, scenarios, and optional environment and
data files to a hub's admission endpoint. The hub fans the job out to every
node currently registered with it.

Example:
  bombard dispatch --hub http://localhost:8080 --config config.yaml --scenarios scenarios.yaml --watch`,
	RunE: dispatchJob,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().StringVar(&dispatchHubURL, "hub", "http://localhost:8080", "hub REST base URL")
	dispatchCmd.Flags().StringVar(&dispatchConfigFile, "config", "", "execution config file")
	dispatchCmd.Flags().StringVar(&dispatchScenarios, "scenarios", "", "scenarios file")
	dispatchCmd.Flags().StringVar(&dispatchEnvironment, "environment", "", "environment variables file (optional)")
	dispatchCmd.Flags().StringVar(&dispatchData, "data", "", "CSV data file (optional)")
	dispatchCmd.Flags().BoolVar(&dispatchWatch, "watch", false, "poll the hub's node counts until bombarding nodes return to idle")

	dispatchCmd.MarkFlagRequired("config")
	dispatchCmd.MarkFlagRequired("scenarios")
}

func dispatchJob(_ *cobra.Command, _ []string) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := attachPart(writer, "config", dispatchConfigFile, true); err != nil {
		return err
	}
	if err := attachPart(writer, "scenarios", dispatchScenarios, true); err != nil {
		return err
	}
	if err := attachPart(writer, "environment", dispatchEnvironment, false); err != nil {
		return err
	}
	if err := attachPart(writer, "data", dispatchData, false); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, dispatchHubURL+"/bombardier/v1/bombard", body)
	if err != nil {
		return fmt.Errorf("building admission request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submitting job to hub: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding hub response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		printError(fmt.Sprintf("hub refused job: %v", result["error"]))
		return fmt.Errorf("hub returned %s", resp.Status)
	}

	printSuccess(fmt.Sprintf("job dispatched: %v", result["job_id"]))

	if dispatchWatch {
		watchNodes(dispatchHubURL)
	}
	return nil
}

// watchNodes polls the hub's node-count endpoint until every dispatched
// node reports back idle, driving an indeterminate spinner since the
// dispatcher has no local view of the job's execution_time budget.
func watchNodes(hubURL string) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("bombarding"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
	)
	defer bar.Finish()

	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		resp, err := client.Get(hubURL + "/bombardier/v1/nodes")
		if err != nil {
			if IsVerbose() {
				printError(fmt.Sprintf("polling node counts: %v", err))
			}
			continue
		}
		var counts map[string]float64
		err = json.NewDecoder(resp.Body).Decode(&counts)
		resp.Body.Close()
		if err != nil {
			continue
		}
		bar.Add(1)
		if counts["bombarding"] == 0 {
			fmt.Println()
			printSuccess("all dispatched nodes are idle again")
			return
		}
	}
}

func attachPart(writer *multipart.Writer, field, path string, required bool) error {
	if path == "" {
		if required {
			return fmt.Errorf("missing required file for %q", field)
		}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filepath.Base(path)))
	header.Set("Content-Type", partContentType(field, path))

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form part %q: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("writing form part %q: %w", field, err)
	}
	return nil
}

// partContentType picks the Content-Type a hub's admission endpoint expects
// for a given form field. The "data" field is always CSV; the self-describing
// config/scenarios/environment fields are JSON or YAML depending on the
// source file's extension.
func partContentType(field, path string) string {
	if field == "data" {
		return "text/csv"
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return "application/json"
	}
	return "application/yaml"
}
