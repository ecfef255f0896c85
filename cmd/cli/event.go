package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/events"
	"github.com/sevigo/build-herald/internal/jobs"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

// readEvent loads a JSON record from path ("-" for stdin) as an event on topic.
func readEvent(path, topic string) (*core.Event, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	event, err := events.Decode(topic, data)
	if err != nil {
		return nil, err
	}
	if err := jobs.ValidateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}
