// Command device_sim feeds synthetic monitoring snapshots into a running API
// instance. It logs in with the supplied driver credentials and posts batches
// on an interval, which is handy for exercising the dashboard locally without
// real camera hardware.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginEnvelope struct {
	Data struct {
		AccessToken string `json:"access_token"`
		User        struct {
			DeviceID string `json:"device_id"`
		} `json:"user"`
	} `json:"data"`
}

type snapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	EAR              float64   `json:"ear"`
	MouthDistance    float64   `json:"mouth_distance"`
	FaceFrames       int       `json:"face_detected_frames"`
	YawnEvents       int       `json:"yawn_events"`
	DrowsinessEvents int       `json:"drowsiness_events"`
	CriticalAlerts   int       `json:"critical_alerts"`
	Status           string    `json:"status"`
}

type ingestPayload struct {
	DeviceID  string     `json:"deviceId"`
	Snapshots []snapshot `json:"snapshots"`
}

func main() {
	var (
		baseURL   string
		email     string
		password  string
		batchSize int
		batches   int
		interval  time.Duration
		timeout   time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&email, "email", "", "driver account email")
	flag.StringVar(&password, "password", "", "driver account password")
	flag.IntVar(&batchSize, "batch-size", 12, "snapshots per batch")
	flag.IntVar(&batches, "batches", 5, "number of batches to send")
	flag.DurationVar(&interval, "interval", 2*time.Second, "delay between batches")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}

	client := &http.Client{Timeout: timeout}

	token, deviceID, err := login(client, baseURL, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Printf("logged in, device %s", deviceID)

	for i := 0; i < batches; i++ {
		batch := makeBatch(deviceID, batchSize)
		if err := send(client, baseURL, token, batch); err != nil {
			log.Fatalf("batch %d failed: %v", i+1, err)
		}
		log.Printf("batch %d/%d sent (%d snapshots)", i+1, batches, batchSize)
		if i < batches-1 {
			time.Sleep(interval)
		}
	}
}

func login(client *http.Client, baseURL, email, password string) (string, string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", "", err
	}
	resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var envelope loginEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", "", err
	}
	return envelope.Data.AccessToken, envelope.Data.User.DeviceID, nil
}

func makeBatch(deviceID string, size int) ingestPayload {
	statuses := []string{"NORMAL", "NORMAL", "NORMAL", "YAWN", "DROWSINESS", "CRITICAL"}
	now := time.Now().UTC()

	snapshots := make([]snapshot, 0, size)
	for i := 0; i < size; i++ {
		status := statuses[rand.Intn(len(statuses))]
		s := snapshot{
			Timestamp:     now.Add(-time.Duration(size-i) * 30 * time.Second),
			EAR:           0.15 + rand.Float64()*0.2,
			MouthDistance: 5 + rand.Float64()*25,
			FaceFrames:    20 + rand.Intn(10),
			Status:        status,
		}
		switch status {
		case "YAWN":
			s.YawnEvents = 1 + rand.Intn(3)
		case "DROWSINESS":
			s.DrowsinessEvents = 1 + rand.Intn(2)
		case "CRITICAL":
			s.CriticalAlerts = 1
			s.DrowsinessEvents = 1
		}
		snapshots = append(snapshots, s)
	}
	return ingestPayload{DeviceID: deviceID, Snapshots: snapshots}
}

func send(client *http.Client, baseURL, token string, payload ingestPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/snapshots", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
