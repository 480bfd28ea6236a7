// Package workdir manages the transient working directories of the pipeline:
// collision-resistant file names, atomic writes, and count/age based eviction.
package workdir

import (
	"strings"

	"github.com/google/uuid"
)

// tokenLength is the number of hex characters taken from a random UUID (48 bits)
const tokenLength = 12

// GenerateName returns "<prefix>_<token><ext>". Uniqueness is probabilistic.
func GenerateName(prefix, extension string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength]
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	if prefix == "" {
		return token + extension
	}
	return prefix + "_" + token + extension
}
