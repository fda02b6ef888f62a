// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package assistant answers chat widget messages. The only responder is
// scripted: it waits a fixed delay and replies with one canned sentence.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultReply is the scripted answer to every visitor message.
const DefaultReply = "I'm here to help you with carbon tracking and emission reduction strategies. How can I assist you today?"

// MaxMessageLength caps visitor messages, in characters.
const MaxMessageLength = 2000

var (
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrMessageTooLong = errors.New("message is too long")
)

// Responder produces a reply to one visitor message.
type Responder interface {
	// Reply blocks until the answer is ready or ctx is done.
	Reply(ctx context.Context, message string) (string, error)

	// Name identifies the responder in logs.
	Name() string
}

// Scripted replies with a fixed sentence after a fixed delay.
type Scripted struct {
	reply string
	delay time.Duration
}

// NewScripted creates a scripted responder. An empty reply uses DefaultReply.
func NewScripted(reply string, delay time.Duration) *Scripted {
	if reply == "" {
		reply = DefaultReply
	}
	return &Scripted{reply: reply, delay: delay}
}

// Reply implements Responder. The delay is abandoned when ctx is cancelled.
func (s *Scripted) Reply(ctx context.Context, message string) (string, error) {
	if err := Validate(message); err != nil {
		return "", err
	}
	if s.delay <= 0 {
		return s.reply, ctx.Err()
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return s.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Name implements Responder.
func (s *Scripted) Name() string { return "scripted" }

// Validate checks a visitor message before it reaches a responder.
func Validate(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
