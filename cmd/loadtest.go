package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"campus-enrollment/internal/config"
	domain "campus-enrollment/internal/domain/enrollment"
	"campus-enrollment/pkg/auth"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL         string
	ActivityID      string
	NumStudents     int
	ConcurrentUsers int
	Capacity        int
	Auth            auth.Config
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	Enrolled          int
	Full              int
	Duplicates        int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int
}

// LoadTester races many students for the seats of one activity
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	owner     domain.Principal
	students  []domain.Principal
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		owner:    domain.Principal{UserID: uuid.New(), Role: domain.RoleFaculty},
		students: make([]domain.Principal, config.NumStudents),
		results: LoadTestResult{
			ErrorsByType: make(map[string]int),
		},
	}
}

func (lt *LoadTester) request(method, path string, principal domain.Principal, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	token, err := auth.Issue(principal, lt.config.Auth, time.Hour)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, lt.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return lt.client.Do(req)
}

// Initialize generates the students and, unless one was given, a published activity
func (lt *LoadTester) Initialize() error {
	fmt.Println("Initializing load test data...")

	for i := range lt.students {
		lt.students[i] = domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent}
	}

	if lt.config.ActivityID != "" {
		fmt.Printf("Using existing activity %s\n", lt.config.ActivityID)
		return nil
	}

	start := time.Now().Add(24 * time.Hour).UTC()
	resp, err := lt.request(http.MethodPost, "/api/v1/activities", lt.owner, map[string]interface{}{
		"title":      "Load test activity",
		"location":   "Main Hall",
		"capacity":   lt.config.Capacity,
		"start_date": start,
		"end_date":   start.Add(2 * time.Hour),
		"status":     domain.ActivityPublished,
	})
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to create activity: status %d", resp.StatusCode)
	}

	var created struct {
		Activity domain.Activity `json:"activity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("failed to decode activity: %w", err)
	}
	lt.config.ActivityID = created.Activity.ActivityID.String()

	fmt.Printf("Created activity %s with %d seats for %d students\n", lt.config.ActivityID, lt.config.Capacity, len(lt.students))
	return nil
}

// RunLoadTest sends one enroll request per student
func (lt *LoadTester) RunLoadTest() {
	fmt.Printf("Starting load test with %d concurrent users...\n", lt.config.ConcurrentUsers)

	lt.startTime = time.Now()
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, lt.config.ConcurrentUsers)

	for i := range lt.students {
		wg.Add(1)

		go func(student domain.Principal) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lt.simulateEnrollment(student)
		}(lt.students[i])
	}

	wg.Wait()

	lt.calculateMetrics()
	lt.printResults()
}

func (lt *LoadTester) simulateEnrollment(student domain.Principal) {
	startTime := time.Now()

	resp, err := lt.request(http.MethodPost, "/api/v1/activities/"+lt.config.ActivityID+"/enroll", student, nil)
	responseTime := time.Since(startTime)
	if err != nil {
		lt.recordError("http_request")
		return
	}
	defer resp.Body.Close()

	lt.recordResponse(resp.StatusCode, responseTime)
}

// recordResponse records the response metrics
func (lt *LoadTester) recordResponse(statusCode int, responseTime time.Duration) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}
	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch statusCode {
	case http.StatusOK:
		lt.results.Enrolled++
	case http.StatusBadRequest:
		lt.results.Full++
	case http.StatusConflict:
		lt.results.Duplicates++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
}

func (lt *LoadTester) printResults() {
	fmt.Println("\n" + strings.Repeat("=", 80))

	fmt.Printf("Test Configuration:\n")
	fmt.Printf("  - Activity: %s\n", lt.config.ActivityID)
	fmt.Printf("  - Concurrent Users: %d\n", lt.config.ConcurrentUsers)
	fmt.Printf("  - Students: %d\n", lt.config.NumStudents)

	fmt.Printf("\nOutcomes:\n")
	fmt.Printf("  - Total Requests: %d\n", lt.results.TotalRequests)
	fmt.Printf("  - Enrolled: %d\n", lt.results.Enrolled)
	fmt.Printf("  - Rejected (full/closed): %d\n", lt.results.Full)
	fmt.Printf("  - Rejected (duplicate): %d\n", lt.results.Duplicates)
	fmt.Printf("  - Failed: %d\n", lt.results.FailedReqs)

	fmt.Printf("\nResponse Time Metrics:\n")
	fmt.Printf("  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Printf("  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Printf("  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)
	fmt.Printf("  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Printf("\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Printf("  - %s: %d\n", errorType, count)
		}
	}
}

// Verify reads the seat summary back and checks the counter against the records
func (lt *LoadTester) Verify() error {
	resp, err := lt.request(http.MethodGet, "/api/v1/activities/"+lt.config.ActivityID+"/summary", lt.owner, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch summary: status %d", resp.StatusCode)
	}

	var body struct {
		Summary    domain.SeatSummary `json:"summary"`
		Consistent bool               `json:"consistent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode summary: %w", err)
	}

	fmt.Printf("\nSeat Audit:\n")
	fmt.Printf("  - Capacity: %d, Available: %d, Enrolled records: %d\n",
		body.Summary.Capacity, body.Summary.AvailableSeats, body.Summary.Enrolled)

	if !body.Consistent {
		return fmt.Errorf("seat counter drift detected")
	}
	if body.Summary.Enrolled > body.Summary.Capacity {
		return fmt.Errorf("activity overbooked: %d enrolled for %d seats", body.Summary.Enrolled, body.Summary.Capacity)
	}
	fmt.Println("  ✅ Seat counter matches enrollment records")
	return nil
}

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Race concurrent enrollments against a running server",
	Long: `Race many students for the seats of one activity and check that
the server never overbooks it. Tokens are minted with auth.secret, so the
target server must share that secret.
Creates a published activity unless --activity is given (the token owner
then has to manage that activity for the final audit).`,
	Run: func(cmd *cobra.Command, args []string) {
		runLoadTest()
	},
}

var (
	baseURL         string
	activityID      string
	numStudents     int
	concurrentUsers int
	capacity        int
)

func init() {
	rootCmd.AddCommand(loadtestCmd)

	loadtestCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the enrollment API")
	loadtestCmd.Flags().StringVar(&activityID, "activity", "", "Existing activity to race for")
	loadtestCmd.Flags().IntVar(&numStudents, "students", 500, "Number of students to simulate")
	loadtestCmd.Flags().IntVar(&concurrentUsers, "concurrent", 100, "Number of concurrent users")
	loadtestCmd.Flags().IntVar(&capacity, "capacity", 50, "Seats of the created activity")
}

func runLoadTest() {
	cfg := config.Get()

	loadTester := NewLoadTester(LoadTestConfig{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		ActivityID:      activityID,
		NumStudents:     numStudents,
		ConcurrentUsers: concurrentUsers,
		Capacity:        capacity,
		Auth:            auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer},
	})

	fmt.Println("Enrollment Load Test")
	fmt.Println("====================")

	if err := loadTester.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loadTester.RunLoadTest()

	if err := loadTester.Verify(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(2)
	}
}
