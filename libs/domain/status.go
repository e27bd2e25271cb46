package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown status")

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole treats an empty value as RoleClient.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleClient:
		return RoleClient, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}
