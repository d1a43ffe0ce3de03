// Package repository defines the persistence contracts of the service,
// trainee and letter stores plus the two durable retry queues, together
// with their MySQL and in-memory implementations. Sentinel errors let the
// service layer branch on failure kinds without caring which backing store
// produced them.
package repository

import "errors"

// ErrNotFound is returned when a referenced trainee or letter does not
// exist. Coordinators treat this as a data error and let it propagate out
// of a retry pass.
var ErrNotFound = errors.New("record not found")

// ErrUsernameExists is returned when registration collides with an existing
// login name.
var ErrUsernameExists = errors.New("username already exists")

// ErrQueueEmpty is returned by Front and Pop on an empty queue.
var ErrQueueEmpty = errors.New("queue is empty")
