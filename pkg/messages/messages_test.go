package messages

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundTemplatesNameTheFile(t *testing.T) {
	assert.Equal(t, "Video file k.mp4 not found", fmt.Sprintf(ErrVideoFileNotFound, "k.mp4"))
	assert.Equal(t, "JSON file k.json not found", fmt.Sprintf(ErrJSONFileNotFound, "k.json"))
}

func TestResponseLiteralsAreStable(t *testing.T) {
	// Clients match on these strings.
	assert.Equal(t, "All datasets deleted", MsgAllDatasetsDeleted)
	assert.Equal(t, "Unauthorized", RespUnauthorized)
	assert.Equal(t, "Video and JSON data are required", ErrVideoAndJSONRequired)
}

func TestMessagesNotEmpty(t *testing.T) {
	for _, msg := range []string{
		MsgDatasetCreated, MsgArchiveBuilt, MsgStartAPIServer, MsgPurgeConfirmTitle,
	} {
		assert.NotEmpty(t, strings.TrimSpace(msg))
	}
}
