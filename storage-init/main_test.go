package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestAlreadyExists(t *testing.T) {
	exists := &azcore.ResponseError{ErrorCode: "QueueAlreadyExists", StatusCode: 409}
	if !alreadyExists(fmt.Errorf("create: %w", exists), "QueueAlreadyExists") {
		t.Fatalf("expected wrapped conflict to match")
	}
	if alreadyExists(exists, "TableAlreadyExists") {
		t.Fatalf("different code must not match")
	}
	if alreadyExists(errors.New("QueueAlreadyExists"), "QueueAlreadyExists") {
		t.Fatalf("plain errors must not match")
	}
}

func TestNonEmpty(t *testing.T) {
	if got := nonEmpty("", "tasks", ""); len(got) != 1 || got[0] != "tasks" {
		t.Fatalf("unexpected names: %v", got)
	}
	if got := nonEmpty(); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
