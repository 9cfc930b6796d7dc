package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/hellojohn-projects/internal/jwt"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_KIND", "off")
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreate_FromStdin(t *testing.T) {
	out, err := run(t, `{"display_name":"Acme","config":{"oauth_providers":[{"id":"google","type":"shared","enabled":true}]}}`,
		"create", "--owner", "ghost")
	require.NoError(t, err)

	var view projects.ProjectView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Acme", view.DisplayName)
	assert.Len(t, view.Config.EnabledOAuthProviders, 1)
}

func TestCreate_RejectsInvalidRequest(t *testing.T) {
	_, err := run(t, `{"display_name":"Acme","config":{"oauth_providers":[{"id":"myspace","type":"shared","enabled":true}]}}`, "create")
	require.Error(t, err)
	assert.True(t, projects.IsValidation(err))
}

func TestToken_IsAcceptedByIssuer(t *testing.T) {
	out, err := run(t, "", "token", "owner-7")
	require.NoError(t, err)

	sub, err := jwtx.NewIssuer("hellojohn", "cli-secret").Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "owner-7", sub)
}
