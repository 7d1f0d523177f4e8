package coder

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mapReader serves reference contents from memory.
type mapReader map[string]string

func (r mapReader) ReadFile(name string) (string, error) {
	return r[name], nil
}
