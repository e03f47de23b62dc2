package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	require.Equal(t, "error", attr.Key)
	require.Equal(t, "boom", attr.Value.String())

	nilAttr := Err(nil)
	require.Equal(t, "error", nilAttr.Key)
	require.Equal(t, "", nilAttr.Value.String())
}
