package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_ReplacesInvalidChars(t *testing.T) {
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", Sanitize(`a\b/c:d*e?f"g<h>i`))
}

func TestSanitize_PipeReplaced(t *testing.T) {
	assert.Equal(t, "a_b", Sanitize("a|b"))
}

func TestSanitize_EmptyDefaultsToUnderscore(t *testing.T) {
	assert.Equal(t, "_", Sanitize(""))
	assert.Equal(t, "_", Sanitize("   "))
}

func TestSanitize_LeavesOrdinaryTextUnchanged(t *testing.T) {
	assert.Equal(t, "Sword of the Stars", Sanitize("Sword of the Stars"))
}

func TestFilename_BuildsSanitizedPair(t *testing.T) {
	assert.Equal(t, "Sword_of_the_Stars_Jin_Yong.txt", Filename("Sword/of/the/Stars", "Jin:Yong", "txt"))
}
