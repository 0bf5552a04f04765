package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMountImageRequiresFstype(t *testing.T) {
	_, err := mountImage("/nonexistent.img", "", true, false)

	assert.Error(t, err)
}

func TestMountImageRejectsUnknownFstype(t *testing.T) {
	_, err := mountImage("/nonexistent.img", "not-a-real-fstype", true, false)

	assert.Error(t, err)
}
