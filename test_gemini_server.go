package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Minimal stand-in for the Gemini generateContent API, for local testing of
// the transcriber without spending real quota. Run it and point the config
// endpoint at http://localhost:9090/v1beta/models.

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text       string `json:"text,omitempty"`
			InlineData *struct {
				MIMEType string `json:"mime_type"`
				Data     string `json:"data"`
			} `json:"inline_data,omitempty"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("key") == "" {
		http.Error(w, "API key required", http.StatusUnauthorized)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hasAudio := false
	promptChars := 0
	for _, content := range req.Contents {
		for _, part := range content.Parts {
			if part.InlineData != nil {
				hasAudio = true
			}
			promptChars += len(part.Text)
		}
	}

	kind := "cleanup"
	text := "טקסט מעובד לדוגמה מהשרת המקומי."
	if hasAudio {
		kind = "transcribe"
		text = "תמלול גולמי לדוגמה מהשרת המקומי."
	}

	model := "unknown"
	if parts := strings.Split(r.URL.Path, "/"); len(parts) > 0 {
		model = strings.TrimSuffix(parts[len(parts)-1], ":generateContent")
	}

	log.Printf("Request: model=%s kind=%s prompt_chars=%d temperature=%.1f",
		model, kind, promptChars, req.GenerationConfig.Temperature)

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func main() {
	http.HandleFunc("/v1beta/models/", generateHandler)

	fmt.Println("Fake Gemini server starting on :9090")
	fmt.Println("Endpoint for config.yaml: http://localhost:9090/v1beta/models")

	log.Fatal(http.ListenAndServe(":9090", nil))
}
