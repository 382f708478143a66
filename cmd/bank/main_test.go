package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wfap/pkg/platform/secrets"
)

func TestPrintAdminTokenVerifiableHash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAdminToken(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	token := strings.TrimPrefix(lines[0], "admin token: ")
	hash := strings.TrimPrefix(lines[1], "admin token hash: ")
	require.NotEmpty(t, token)
	require.NotEmpty(t, hash)
	require.NoError(t, secrets.Verify(token, hash), "printed token must match printed hash")
}
