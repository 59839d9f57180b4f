/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Blog struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

type Exoplanet struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Story       string     `json:"story"`
	Quiz        []Question `json:"quiz,omitempty"`
}

type Question struct {
	ID            int    `json:"id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type BlogRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// CompleteResult is the server's verdict on a submitted quiz.
type CompleteResult struct {
	Message            string            `json:"message"`
	IncorrectQuestions []IncorrectAnswer `json:"incorrect_questions,omitempty"`
}

type IncorrectAnswer struct {
	QuestionID    int    `json:"question_id"`
	CorrectOption string `json:"correct_option"`
	YourAnswer    string `json:"your_answer"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// APIClient talks to the site's json api. Calls that need a login read the
// token from the CredentialStore at request time.
type APIClient struct {
	cfg   *Config
	base  string
	http  *http.Client
	store CredentialStore
}

func newAPIClient(cfg *Config, store CredentialStore) *APIClient {
	return &APIClient{
		cfg:   cfg,
		base:  strings.TrimSuffix(cfg.api, "/"),
		http:  &http.Client{Timeout: cfg.timeout},
		store: store,
	}
}

// Register creates an account and stores the returned token.
func (c *APIClient) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/register", false, req, &out); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	return out.Token, c.store.Set(out.Token)
}

// Login exchanges credentials for a token and stores it.
func (c *APIClient) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/login", false, req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	return out.Token, c.store.Set(out.Token)
}

func (c *APIClient) Blogs(ctx context.Context) ([]Blog, error) {
	var out []Blog
	if err := c.do(ctx, http.MethodGet, "/blogs", false, nil, &out); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return out, nil
}

func (c *APIClient) CreateBlog(ctx context.Context, req BlogRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("create blog: both title and content are required")
	}

	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/blogs", true, req, &out); err != nil {
		return "", fmt.Errorf("create blog: %w", err)
	}
	return out.Message, nil
}

func (c *APIClient) Exoplanets(ctx context.Context) ([]Exoplanet, error) {
	var out []Exoplanet
	if err := c.do(ctx, http.MethodGet, "/exoplanets", false, nil, &out); err != nil {
		return nil, fmt.Errorf("list exoplanets: %w", err)
	}
	return out, nil
}

func (c *APIClient) Exoplanet(ctx context.Context, id int) (*Exoplanet, error) {
	var out Exoplanet
	if err := c.do(ctx, http.MethodGet, "/exoplanets/"+strconv.Itoa(id), false, nil, &out); err != nil {
		return nil, fmt.Errorf("exoplanet %d: %w", id, err)
	}
	return &out, nil
}

// CompleteQuiz submits answers keyed by question id for server-side grading.
// A failed quiz returns ErrQuizFailed along with the graded result.
func (c *APIClient) CompleteQuiz(ctx context.Context, id int, answers map[string]string) (*CompleteResult, error) {
	body := map[string]any{"answers": answers}

	var out CompleteResult
	err := c.do(ctx, http.MethodPost, "/exoplanets/"+strconv.Itoa(id)+"/complete", true, body, &out)
	if err != nil {
		if len(out.IncorrectQuestions) > 0 {
			return &out, fmt.Errorf("%w: %s", ErrQuizFailed, out.Message)
		}
		return nil, fmt.Errorf("complete quiz %d: %w", id, err)
	}
	return &out, nil
}

// do sends one json request. Error responses are decoded into out as well, so
// callers can read structured failure bodies.
func (c *APIClient) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	startTime := time.Now()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth {
		token, ok := c.store.Get()
		if !ok {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	logf(c.cfg, "API: %s %s -> %d (%s) in %s",
		method, path, resp.StatusCode,
		humanReadableSize(len(data)),
		time.Since(startTime).Round(time.Microsecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg messageResponse
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, out)
}
