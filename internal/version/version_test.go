package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "dextract "+Version))
	assert.Contains(t, info, "built: "+BuildDate)
	assert.NotEmpty(t, Revision())
	assert.LessOrEqual(t, len(Revision()), 40)
}
