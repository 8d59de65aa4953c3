package main

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// commandRecognizer shells out to a speech-to-text program that records
// until it exits and prints the transcript on stdout.
type commandRecognizer struct {
	name string
	args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func newCommandRecognizer(command string) *commandRecognizer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return &commandRecognizer{name: fields[0], args: fields[1:]}
}

func (r *commandRecognizer) Start(onResult func(string), onError func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return errors.New("recognizer already running")
	}

	cmd := exec.Command(r.name, r.args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	r.cmd = cmd

	go func() {
		err := cmd.Wait()

		r.mu.Lock()
		current := r.cmd == cmd
		if current {
			r.cmd = nil
		}
		r.mu.Unlock()
		if !current {
			return
		}

		text := strings.TrimSpace(out.String())
		switch {
		case err != nil:
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = errors.New(msg)
			}
			onError(err)
		case text == "":
			onError(errors.New("no speech detected"))
		default:
			onResult(text)
		}
	}()
	return nil
}

// Stop abandons the running capture; its output is discarded.
func (r *commandRecognizer) Stop() {
	r.mu.Lock()
	cmd := r.cmd
	r.cmd = nil
	r.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
