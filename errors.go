/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

var (
	ErrMissingRoom     = errors.New("no chatroom specified")
	ErrUnauthenticated = errors.New("you need to be logged in")
	ErrTransportClosed = errors.New("chat connection closed")
	ErrNotFound        = errors.New("not found")
	ErrQuizFailed      = errors.New("quiz not passed")
)

// APIError carries the message field of a non-2xx api response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	}
	return nil
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}
