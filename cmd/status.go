package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cwbudde/annealtsp/internal/server"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	cancelJob bool
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.
With --cancel the job is cancelled first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	statusCmd.Flags().BoolVar(&cancelJob, "cancel", false, "Cancel the given job")
	rootCmd.AddCommand(statusCmd)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		if cancelJob {
			return fmt.Errorf("--cancel needs a job id")
		}
		return listJobs(out, serverURL+"/api/v1/jobs")
	}

	jobID := args[0]
	if cancelJob {
		if err := postCancel(serverURL + "/api/v1/jobs/" + jobID + "/cancel"); err != nil {
			return err
		}
		fmt.Fprintf(out, "Cancellation requested for %s\n\n", jobID)
	}
	return getJobStatus(out, serverURL+"/api/v1/jobs/"+jobID+"/status", jobID)
}

func getJSON(url string, v any) (int, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func postCancel(url string) error {
	resp, err := httpClient.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cancel failed: %s", string(body))
	}
	return nil
}

func listJobs(w io.Writer, url string) error {
	var jobs []server.JobSummary
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(w, "Job ID: %s\n", job.ID)
		fmt.Fprintf(w, "  State: %s\n", job.State)
		if job.Name != "" {
			fmt.Fprintf(w, "  Instance: %s\n", job.Name)
		}
		fmt.Fprintf(w, "  Cities: %d, rule: %s\n", job.Cities, job.Rule)
		fmt.Fprintf(w, "  Iterations: %d/%d\n", job.Iterations, job.Budget)
		if job.BestLength > 0 {
			fmt.Fprintf(w, "  Length: %.4f -> %.4f\n", job.InitialLength, job.BestLength)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func getJobStatus(w io.Writer, url, jobID string) error {
	var status server.JobStatus
	code, err := getJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Job: %s\n", status.ID)
	fmt.Fprintf(w, "State: %s\n", status.State)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	if status.Name != "" {
		fmt.Fprintf(w, "  Instance: %s\n", status.Name)
	}
	fmt.Fprintf(w, "  Cities: %d\n", status.Cities)
	fmt.Fprintf(w, "  Rule: %s\n", status.Rule)
	fmt.Fprintf(w, "  Iterations: %d\n", status.Budget)
	fmt.Fprintf(w, "  Initial temperature: %g, cooling: %g\n", status.InitialTemp, status.Cooling)
	fmt.Fprintf(w, "  Seed: %d\n", status.Seed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	fmt.Fprintf(w, "  Iterations: %d\n", status.Iterations)
	fmt.Fprintf(w, "  Temperature: %.4g\n", status.Temperature)
	fmt.Fprintf(w, "  Accepted moves: %d\n", status.Accepted)
	if status.InitialLength > 0 {
		fmt.Fprintf(w, "  Initial Length: %.4f\n", status.InitialLength)
	}
	if status.BestLength > 0 {
		fmt.Fprintf(w, "  Best Length: %.4f\n", status.BestLength)
		if status.InitialLength > 0 {
			improvement := status.InitialLength - status.BestLength
			fmt.Fprintf(w, "  Improvement: %.4f (%.1f%%)\n", improvement, improvement/status.InitialLength*100)
		}
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(w, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if len(status.BestTour) > 0 {
		fmt.Fprintf(w, "  Best Tour: %v\n", status.BestTour)
	}

	if status.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", status.Error)
	}
	return nil
}
