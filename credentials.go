/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const tokenKey = "token"

// CredentialStore holds the signed token issued at login. Writes are visible
// to the next Get.
type CredentialStore interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// FileCredentialStore persists the token under the "token" key of a yaml file.
type FileCredentialStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	v    *viper.Viper
}

func newFileCredentialStore(fsys afero.Fs, path string) (*FileCredentialStore, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}

	return &FileCredentialStore{fs: fsys, path: path, v: v}, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func (s *FileCredentialStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.v.GetString(tokenKey)
	return token, token != ""
}

func (s *FileCredentialStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(tokenKey, token)
	return s.write()
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(tokenKey, "")
	return s.write()
}

func (s *FileCredentialStore) write() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write credentials %s: %w", s.path, err)
	}
	return s.fs.Chmod(s.path, 0o600)
}

// MemoryCredentialStore keeps the token for the life of the process.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryCredentialStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token, s.token != ""
}

func (s *MemoryCredentialStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	return s.Set("")
}
