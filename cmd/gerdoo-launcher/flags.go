package main

import "time"

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	// Remote launcher API; when set, server, update and history commands
	// go through a running "serve" instead of acting locally.
	APIUrl     string
	APITimeout time.Duration
}

// Flag structs decouple cobra from the command logic for testing.

type InstallFlags struct {
	Force bool
}

type CreateUserFlags struct {
	Username string
	Email    string
	Password string
}

type HistoryFlags struct {
	Limit int
}

type ServeFlags struct {
	Listen   string
	BasePath string
	// StopOnExit force-stops the managed server when serve shuts down.
	StopOnExit bool
	Shutdown   time.Duration
}
