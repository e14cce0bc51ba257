package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// getPassword reads a line from the terminal without echoing it
func getPassword(prompt string) ([]byte, error) {
	initialTermState, err := term.GetState(int(syscall.Stdin))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Restore the terminal if interrupted while reading
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		_, ok := <-c
		if !ok {
			return
		}
		_ = term.Restore(int(syscall.Stdin), initialTermState)
		os.Exit(1)
	}()
	defer func() {
		signal.Stop(c)
		close(c)
	}()

	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return password, nil
}
