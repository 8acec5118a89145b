package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProcName(t *testing.T) {
	assert.Equal(t, "nba2k26", normalizeProcName("NBA2K26.exe"))
	assert.Equal(t, "nba2k26", normalizeProcName("  nba2k26  "))
	assert.Equal(t, "nba2k26", normalizeProcName("nba2k26"))
}

func TestResolvePIDEmptyName(t *testing.T) {
	_, err := ResolvePID("")
	assert.ErrorIs(t, err, ErrProcessNotFound)
}
