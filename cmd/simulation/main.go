package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
)

const (
	baseURL      = "http://localhost:3000/api"
	pollInterval = 2 * time.Second
	pollBudget   = 15 * time.Minute
)

// Simplified DTOs for the script
type AcceptedResponse struct {
	Data struct {
		JobId string `json:"job_id"`
	} `json:"data"`
}

type StageProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type JobSnapshot struct {
	JobId    string                   `json:"job_id"`
	Status   string                   `json:"status"`
	Stage    string                   `json:"stage"`
	Message  string                   `json:"message"`
	Progress map[string]StageProgress `json:"progress"`
	Result   json.RawMessage          `json:"result"`
	Error    string                   `json:"error"`
}

type JobResponse struct {
	Data JobSnapshot `json:"data"`
}

func main() {
	fmt.Println("=== Research Pipeline Simulation Client ===")

	query := "How do recent papers approach data augmentation for low-resource languages?"
	color.Cyan("QUERY: %s", query)

	// 1. Plan
	planJobId, err := submit("/plan", map[string]interface{}{"query": query})
	if err != nil {
		log.Fatalf("Failed to submit plan job: %v", err)
	}
	fmt.Printf("Plan job accepted: %s\n", planJobId)

	planJob, err := poll(planJobId)
	if err != nil {
		log.Fatalf("Plan job did not finish: %v", err)
	}
	if planJob.Status != "done" {
		color.Red("Plan job ended as %s: %s", planJob.Status, planJob.Error)
		return
	}

	var planResult struct {
		Plan json.RawMessage `json:"plan"`
	}
	if err := json.Unmarshal(planJob.Result, &planResult); err != nil {
		log.Fatalf("Failed to decode plan result: %v", err)
	}
	color.Green("Plan ready (%d bytes)", len(planResult.Plan))

	// 2. Research
	researchJobId, err := submit("/research", map[string]interface{}{"plan": planResult.Plan})
	if err != nil {
		log.Fatalf("Failed to submit research job: %v", err)
	}
	fmt.Printf("Research job accepted: %s\n", researchJobId)

	researchJob, err := poll(researchJobId)
	if err != nil {
		log.Fatalf("Research job did not finish: %v", err)
	}

	switch researchJob.Status {
	case "done":
		color.Green("DONE: %s", researchJob.Message)
		var researchResult struct {
			FinalReport string `json:"final_report"`
		}
		if err := json.Unmarshal(researchJob.Result, &researchResult); err == nil {
			preview := researchResult.FinalReport
			if len(preview) > 600 {
				preview = preview[:600] + "..."
			}
			fmt.Printf("\n--- REPORT PREVIEW ---\n%s\n", preview)
		}
	case "cancelled":
		color.Yellow("CANCELLED: %s", researchJob.Message)
	default:
		color.Red("FAILED: %s", researchJob.Error)
	}
}

func submit(path string, payload map[string]interface{}) (string, error) {
	jsonBytes, _ := json.Marshal(payload)

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	var res AcceptedResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.Data.JobId, nil
}

// poll watches the job until it reaches a terminal status, echoing stage
// transitions and progress ticks along the way.
func poll(jobId string) (*JobSnapshot, error) {
	deadline := time.Now().Add(pollBudget)
	lastLine := ""

	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/jobs/" + jobId)
		if err != nil {
			return nil, err
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
		}

		var res JobResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, err
		}
		job := res.Data

		line := fmt.Sprintf("[%s] %s", job.Stage, job.Message)
		if p, ok := job.Progress[job.Stage]; ok && p.Total > 0 {
			line = fmt.Sprintf("%s (%d/%d)", line, p.Current, p.Total)
		}
		if line != lastLine {
			color.Yellow("  %s", line)
			lastLine = line
		}

		switch job.Status {
		case "done", "error", "cancelled":
			return &job, nil
		}

		time.Sleep(pollInterval)
	}

	return nil, fmt.Errorf("job %s still running after %v", jobId, pollBudget)
}
